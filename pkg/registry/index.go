package registry

import (
	"bytes"

	"github.com/cespare/xxhash/v2"

	"stathive-hq/stathive/pkg/shm"
)

// index is the fixed-capacity open hash table mapping name bytes to
// arena slots. It owns no storage: buckets and slots both live in the
// region, and buckets hold slot references (index+1, zero meaning
// empty), never addresses, so the table survives the region being
// mapped at different bases by different processes.
//
// The table is sized at region creation for the admission limit at a
// load factor of at most 0.5 and never resizes; the caller (Registry)
// rejects insertion beyond capacity before calling insertIfAbsent, so a
// probe always terminates at an empty bucket. There is no removal.
//
// Keys are raw byte sequences: two names are the same key iff they are
// byte-identical, length and content. No normalization, no case folding,
// no encoding awareness.
//
// The index performs no locking of its own. find runs under at least a
// shared hold of the coarse lock; insertIfAbsent runs under the
// exclusive hold.
type index struct {
	region *shm.Region
	mask   uint64
}

func newIndex(region *shm.Region) index {
	return index{
		region: region,
		mask:   uint64(region.BucketCountOf() - 1),
	}
}

func hashName(name []byte) uint64 {
	return xxhash.Sum64(name)
}

// find probes for name and returns its slot, or ok=false if absent.
func (ix index) find(name []byte) (shm.Slot, bool) {
	for i := hashName(name) & ix.mask; ; i = (i + 1) & ix.mask {
		ref := ix.region.Bucket(int(i))
		if ref == 0 {
			return shm.Slot{}, false
		}
		slot := ix.region.Slot(int(ref - 1))
		if bytes.Equal(slot.Name(), name) {
			return slot, true
		}
	}
}

// insertIfAbsent returns the slot for name, creating and initializing it
// when absent. created reports whether this call created the slot; a
// false result with a valid slot means another caller won the creation
// race before the exclusive lock was acquired, which is not an error.
//
// The caller holds the coarse lock exclusively and has already verified
// that the live-entry count is below the admission limit.
func (ix index) insertIfAbsent(name []byte, typ uint32) (shm.Slot, bool) {
	i := hashName(name) & ix.mask
	for {
		ref := ix.region.Bucket(int(i))
		if ref == 0 {
			break
		}
		slot := ix.region.Slot(int(ref - 1))
		if bytes.Equal(slot.Name(), name) {
			return slot, false
		}
		i = (i + 1) & ix.mask
	}

	// Slots are handed out densely in creation order; a slot index is
	// never reused, so a fresh slot's bytes are still region-creation
	// zeroes. Initialize fully anyway, name length last: the bucket
	// store below is what publishes the slot to shared-lock readers.
	live := ix.region.Live()
	slotIdx := live.Load()
	slot := ix.region.Slot(int(slotIdx))
	slot.SetType(typ)
	slot.SetValue(0)
	slot.SetName(name)

	ix.region.SetBucket(int(i), uint32(slotIdx)+1)
	live.Add(1)
	return slot, true
}

// count returns the number of live entries.
func (ix index) count() int {
	return int(ix.region.Live().Load())
}

// forEach visits every live slot in creation order. The caller holds at
// least a shared hold of the coarse lock so the walk and the count are
// consistent with each other.
func (ix index) forEach(visit func(shm.Slot)) {
	n := ix.count()
	for i := 0; i < n; i++ {
		visit(ix.region.Slot(i))
	}
}
