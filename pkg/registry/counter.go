package registry

import (
	"fmt"

	"stathive-hq/stathive/pkg/shm"
)

// MaxNameLen is the maximum metric name length in bytes.
const MaxNameLen = shm.MaxNameLen

// MetricType tags the kind of metric a slot holds. Counters are the
// only type; the tag exists so the slot layout and the enumeration
// result set do not change if other types are ever added.
type MetricType uint32

// TypeCounter is a monotonically-adjustable 64-bit integer counter.
const TypeCounter MetricType = 0

// String returns the type label used in enumeration results.
func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "COUNTER"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(t))
	}
}

// Counter is a handle to one slot. Handles are cheap values and remain
// valid for the lifetime of the region: the slot they reference never
// moves and is never deleted.
type Counter struct {
	slot shm.Slot
}

// Add adds delta to the counter under the slot's fine-grained lock and
// returns the value before the addition. delta may be negative; the
// value wraps per fixed-width 64-bit arithmetic, with no overflow check.
//
// Add never takes the coarse registry lock: it contends only with
// concurrent updates to this same counter, never with lookups, creation
// of other names, or enumeration's membership phase.
func (c Counter) Add(delta int64) int64 {
	lock := c.slot.Lock()
	lock.Lock()
	prev := c.slot.Value()
	c.slot.SetValue(prev + delta)
	lock.Unlock()
	return prev
}

// Value returns the current counter value.
func (c Counter) Value() int64 {
	lock := c.slot.Lock()
	lock.Lock()
	v := c.slot.Value()
	lock.Unlock()
	return v
}

// Name returns the counter's name. The name is immutable once the slot
// is created.
func (c Counter) Name() string {
	return string(c.slot.Name())
}

// Type returns the counter's type tag.
func (c Counter) Type() MetricType {
	return MetricType(c.slot.Type())
}

// Sample is one entry of an enumeration result set.
type Sample struct {
	// Name is the metric name.
	Name string

	// Type is the metric's type tag, always TypeCounter today.
	Type MetricType

	// Value is the counter value read under the slot's lock.
	Value int64
}
