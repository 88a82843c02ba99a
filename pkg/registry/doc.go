// Package registry implements the process-shared, fixed-capacity registry
// of named counters over a shm.Region.
//
// # Overview
//
// The registry maps metric names (raw byte sequences, at most 127 bytes)
// to fixed-layout slots living in a pre-allocated shared arena. Slots are
// created lazily on first reference, never move, and are never deleted;
// the number of distinct names is capped by the admission limit the
// region was created with.
//
// # Locking Protocol
//
// Two tiers of locks keep high-frequency increments off the structural
// path:
//
//   - The coarse reader/writer lock guards membership: which names exist,
//     the hash index buckets, and the live-entry count. Lookups and the
//     membership phase of enumeration take it shared; only slot creation
//     takes it exclusive.
//   - Each slot carries its own spinlock guarding only that slot's value.
//     Increments on different names never contend with each other, and
//     never with lookups or creation of other names.
//
// GetOrCreate is optimized for the common case of an existing name: it
// finds the slot under a shared hold and returns without ever taking the
// exclusive lock. On a miss it releases the shared hold and reacquires
// exclusively (no lock upgrade), so a concurrent creator may win the
// race in between; that is handled by the insert-if-absent re-check and
// is not an error. Only true exhaustion of the admission limit fails.
//
// Enumeration snapshots membership under a shared hold, releases it, and
// only then reads values under the per-slot locks, so a long scan never
// blocks name creation for longer than the membership walk. Values in
// the result may therefore be slightly newer than the membership set; a
// benign, documented race.
//
// # Failure Semantics
//
// Names longer than 127 bytes are rejected up front, before any lock is
// taken. A nil registry (bootstrap not finished) and capacity exhaustion
// both degrade to "no value" on the CounterAdd entry point rather than
// failing the caller; losing a metric sample is preferable to failing
// the host's request path.
package registry
