package registry

import (
	"errors"
	"fmt"

	"stathive-hq/stathive/pkg/shm"
)

// Registry is a per-process handle to the shared counter registry in an
// attached region. All methods are safe for concurrent use from any
// number of goroutines, and the region-resident state they manipulate is
// likewise shared safely with other processes attached to the same
// region.
//
// A nil *Registry is a valid receiver for CounterAdd and Snapshot and
// behaves as "not yet initialized": callers racing with bootstrap get
// "no value" rather than a failure.
type Registry struct {
	region *shm.Region
	idx    index
}

// New returns a registry handle over an attached region.
func New(region *shm.Region) *Registry {
	return &Registry{
		region: region,
		idx:    newIndex(region),
	}
}

// MaxEntries returns the admission limit of the attached region.
func (r *Registry) MaxEntries() int {
	return r.region.MaxEntries()
}

// Count returns the current number of live entries.
func (r *Registry) Count() int {
	lock := r.region.CoarseLock()
	lock.RLock()
	n := r.idx.count()
	lock.RUnlock()
	return n
}

// Lookup finds an existing counter by name without creating it. It takes
// only a shared hold of the coarse lock.
func (r *Registry) Lookup(name []byte) (Counter, bool) {
	if r == nil || r.region == nil || len(name) > MaxNameLen {
		return Counter{}, false
	}
	lock := r.region.CoarseLock()
	lock.RLock()
	slot, ok := r.idx.find(name)
	lock.RUnlock()
	return Counter{slot: slot}, ok
}

// GetOrCreate returns the counter for name, creating its slot if absent
// and the admission limit allows.
//
// The fast path takes the coarse lock shared: an existing name is
// resolved entirely under concurrent-reader locking. On a miss the
// shared hold is released and the lock reacquired exclusively; this is a
// separate acquisition, not an upgrade, so another caller may create the
// entry in the window. Losing that race returns the now-existing slot
// and is not an error. The capacity check runs once per call under the
// exclusive hold; only genuine exhaustion returns ErrCapacityExceeded.
func (r *Registry) GetOrCreate(name []byte, typ MetricType) (Counter, error) {
	if len(name) > MaxNameLen {
		return Counter{}, fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(name))
	}
	if r == nil || r.region == nil {
		return Counter{}, ErrNotAttached
	}

	lock := r.region.CoarseLock()

	lock.RLock()
	slot, ok := r.idx.find(name)
	lock.RUnlock()
	if ok {
		return Counter{slot: slot}, nil
	}

	lock.Lock()
	if uint64(r.idx.count()) >= uint64(r.region.MaxEntries()) {
		lock.Unlock()
		return Counter{}, fmt.Errorf("%w: %d entries", ErrCapacityExceeded, r.region.MaxEntries())
	}
	slot, _ = r.idx.insertIfAbsent(name, uint32(typ))
	lock.Unlock()

	return Counter{slot: slot}, nil
}

// CounterAdd is the increment entry point: add delta to the counter
// named name, creating it if absent, and return the value the counter
// held before the addition.
//
// ok is false, with no error, when no value can be produced for benign
// reasons: the registry is not yet initialized, or the name is new and
// the admission limit is exhausted. Only a name longer than MaxNameLen
// bytes produces an error, and it does so before any state is touched.
func (r *Registry) CounterAdd(name []byte, delta int64) (prev int64, ok bool, err error) {
	if len(name) > MaxNameLen {
		return 0, false, fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(name))
	}
	if r == nil || r.region == nil {
		return 0, false, nil
	}

	c, err := r.GetOrCreate(name, TypeCounter)
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return c.Add(delta), true, nil
}

// Snapshot is the enumeration entry point: it returns one Sample per
// live entry, in creation order.
//
// Membership is fixed under a single shared hold of the coarse lock, so
// the count and the set of entries are consistent with each other. The
// lock is released before any value is read; values are then read one
// slot lock at a time, so the result's values may be slightly newer than
// its membership. Holding the coarse lock across value reads would block
// name creation for the whole scan, which is the wrong trade.
func (r *Registry) Snapshot() []Sample {
	if r == nil || r.region == nil {
		return nil
	}

	lock := r.region.CoarseLock()
	lock.RLock()
	n := r.idx.count()
	slots := make([]shm.Slot, 0, n)
	names := make([]string, 0, n)
	r.idx.forEach(func(slot shm.Slot) {
		slots = append(slots, slot)
		names = append(names, string(slot.Name()))
	})
	lock.RUnlock()

	samples := make([]Sample, len(slots))
	for i, slot := range slots {
		slotLock := slot.Lock()
		slotLock.Lock()
		v := slot.Value()
		slotLock.Unlock()

		samples[i] = Sample{
			Name:  names[i],
			Type:  MetricType(slot.Type()),
			Value: v,
		}
	}
	return samples
}
