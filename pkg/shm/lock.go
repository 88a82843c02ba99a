package shm

import (
	"runtime"
	"sync/atomic"
)

// RWSpinLock is a reader/writer spinlock whose state is a single 32-bit
// word inside the mapped region, so it arbitrates between every process
// attached to the region, not just goroutines of one process.
//
// The word holds the reader count in the low bits and a writer bit at
// the top. Readers increment the count when no writer holds the lock;
// the writer CASes the whole word from zero, so it waits for all readers
// to drain and excludes new ones.
//
// Holders must keep critical sections short and must not block on I/O or
// another lock while holding it; there is no queueing and no fairness.
type RWSpinLock struct {
	word *atomic.Uint32
}

const writerBit uint32 = 1 << 31

// RLock acquires the lock in shared mode.
func (l RWSpinLock) RLock() {
	for {
		v := l.word.Load()
		if v&writerBit == 0 && l.word.CompareAndSwap(v, v+1) {
			return
		}
		runtime.Gosched()
	}
}

// RUnlock releases one shared hold.
func (l RWSpinLock) RUnlock() {
	l.word.Add(^uint32(0))
}

// Lock acquires the lock in exclusive mode, waiting out all shared
// holders.
func (l RWSpinLock) Lock() {
	for !l.word.CompareAndSwap(0, writerBit) {
		runtime.Gosched()
	}
}

// Unlock releases the exclusive hold.
func (l RWSpinLock) Unlock() {
	l.word.Store(0)
}

// SpinLock is a plain test-and-set mutual exclusion word, used one per
// slot to guard that slot's value. Critical sections are a handful of
// instructions, so contention resolves by spinning rather than parking.
type SpinLock struct {
	word *atomic.Uint32
}

// Lock acquires the lock.
func (l SpinLock) Lock() {
	for !l.word.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

// Unlock releases the lock.
func (l SpinLock) Unlock() {
	l.word.Store(0)
}
