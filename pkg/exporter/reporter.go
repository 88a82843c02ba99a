package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"stathive-hq/stathive/pkg/registry"
)

// UsageReporter periodically logs registry usage on a cron schedule and
// warns as the admission limit approaches.
type UsageReporter struct {
	reg      *registry.Registry
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewUsageReporter creates a reporter running on the given cron
// expression ("@every 47s" style intervals included).
func NewUsageReporter(reg *registry.Registry, schedule string, logger *slog.Logger) *UsageReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsageReporter{
		reg:      reg,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "exporter.usage"),
	}
}

// Start begins scheduled reporting. An empty schedule disables the
// reporter. The reporter stops when ctx is cancelled.
func (r *UsageReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schedule == "" {
		r.logger.Info("usage report schedule not configured, skipping reporter")
		return nil
	}

	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid usage report schedule %q: %w", r.schedule, err)
	}
	if _, err := r.cron.AddFunc(r.schedule, r.report); err != nil {
		return fmt.Errorf("failed to schedule usage report: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("usage reporter started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Stop halts scheduled reporting. Safe to call more than once.
func (r *UsageReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.cron.Stop()
	r.running = false
	r.logger.Info("usage reporter stopped")
}

// report emits one usage log line. Once the limit is reached new names
// are silently rejected, so the warning has to come before that point.
func (r *UsageReporter) report() {
	live := r.reg.Count()
	limit := r.reg.MaxEntries()

	switch {
	case live >= limit:
		r.logger.Warn("registry admission limit exhausted; new counters are being dropped",
			"live", live,
			"limit", limit,
		)
	case live*10 >= limit*9:
		r.logger.Warn("registry approaching admission limit",
			"live", live,
			"limit", limit,
		)
	default:
		r.logger.Info("registry usage",
			"live", live,
			"limit", limit,
		)
	}
}
