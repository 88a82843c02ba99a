// Package shm provides the fixed-size shared memory region backing the
// counter registry.
//
// # Region Layout
//
// A region is a single contiguous block with three sections:
//
//	| header (64 bytes) | bucket array | slot arena |
//
// The header records the region geometry (admission limit, bucket count,
// slot size) together with a format magic/version, a region UUID assigned
// at creation, the live-entry count, and the coarse reader/writer lock
// word. The bucket array is the hash index storage: each bucket holds a
// slot reference (slot index + 1, zero meaning empty), never a pointer,
// so the region stays valid when mapped at different base addresses by
// different processes. The slot arena is a dense array of fixed 152-byte
// slots, each holding a type tag, a spinlock word, a 64-bit value, and
// the metric name inline (127 usable bytes plus a terminator).
//
// # Backing Stores
//
// File-backed regions are created with Create and mapped MAP_SHARED, so
// every process that Attaches the same path operates on the same bytes;
// all synchronization words live inside the mapped block and therefore
// arbitrate across processes. NewAnonymous builds a heap-backed region
// with identical layout for tests and single-process use.
//
// # Sizing
//
// SizeFor is a pure function of the admission limit and is computed
// identically at every attach, which is what makes re-attachment after a
// restart safe: a region file whose size does not match SizeFor of its
// recorded limit is rejected as corrupt.
//
// The region never grows, slots are never freed, and the admission limit
// is fixed for the lifetime of the region file.
package shm
