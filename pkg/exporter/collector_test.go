package exporter

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"stathive-hq/stathive/pkg/registry"
	"stathive-hq/stathive/pkg/shm"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	region, err := shm.NewAnonymous(10)
	if err != nil {
		t.Fatalf("failed to create region: %v", err)
	}
	return registry.New(region)
}

func TestCollector_ExportsCounters(t *testing.T) {
	reg := newTestRegistry(t)
	reg.CounterAdd([]byte("requests_total"), 5)
	reg.CounterAdd([]byte("errors_total"), 2)

	c := NewCollector(reg, "stathive", nil)

	expected := `
# HELP errors_total errors_total counter
# TYPE errors_total counter
errors_total 2
# HELP requests_total requests_total counter
# TYPE requests_total counter
requests_total 5
# HELP stathive_registry_capacity Admission limit of the shared counter registry.
# TYPE stathive_registry_capacity gauge
stathive_registry_capacity 10
# HELP stathive_registry_entries Number of live entries in the shared counter registry.
# TYPE stathive_registry_entries gauge
stathive_registry_entries 2
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected exposition: %v", err)
	}
}

func TestCollector_TracksNewCounters(t *testing.T) {
	reg := newTestRegistry(t)
	reg.CounterAdd([]byte("first"), 1)

	c := NewCollector(reg, "stathive", nil)
	if got := testutil.CollectAndCount(c); got != 3 {
		t.Fatalf("Expected 3 metrics on first scrape, got %d", got)
	}

	// A counter created after the first scrape appears on the next one,
	// with no re-registration step
	reg.CounterAdd([]byte("second"), 1)
	if got := testutil.CollectAndCount(c); got != 4 {
		t.Errorf("Expected 4 metrics after new counter, got %d", got)
	}
}

func TestCollector_SanitizesNames(t *testing.T) {
	reg := newTestRegistry(t)
	reg.CounterAdd([]byte("api.requests/total"), 7)

	c := NewCollector(reg, "stathive", nil)

	expected := `
# HELP api_requests_total api.requests/total counter
# TYPE api_requests_total counter
api_requests_total 7
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "api_requests_total"); err != nil {
		t.Errorf("unexpected exposition: %v", err)
	}
}

func TestCollector_DropsCollidingNames(t *testing.T) {
	reg := newTestRegistry(t)
	reg.CounterAdd([]byte("a.b"), 1)
	reg.CounterAdd([]byte("a/b"), 2)

	c := NewCollector(reg, "stathive", nil)

	// Both raw names sanitize to a_b; only the first claims it. The
	// two self-gauges plus one counter survive.
	if got := testutil.CollectAndCount(c); got != 3 {
		t.Errorf("Expected 3 metrics with collision dropped, got %d", got)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"requests_total", "requests_total"},
		{"api.requests", "api_requests"},
		{"http/2xx", "http_2xx"},
		{"9lives", "_9lives"},
		{"", "_"},
		{"name:with:colons", "name:with:colons"},
		{"bad\xffbytes", "bad_bytes"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHandler_Serves(t *testing.T) {
	reg := newTestRegistry(t)
	reg.CounterAdd([]byte("served_total"), 3)

	c := NewCollector(reg, "stathive", nil)
	handler, err := Handler(c)
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "served_total 3") {
		t.Errorf("Expected served_total 3 in exposition, got:\n%s", body)
	}
	if !strings.Contains(body, "stathive_registry_entries 1") {
		t.Errorf("Expected self-gauge in exposition, got:\n%s", body)
	}
}
