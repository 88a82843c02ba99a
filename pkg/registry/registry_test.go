package registry

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"stathive-hq/stathive/pkg/shm"
)

func newTestRegistry(t *testing.T, maxEntries int) *Registry {
	t.Helper()
	region, err := shm.NewAnonymous(maxEntries)
	if err != nil {
		t.Fatalf("failed to create region: %v", err)
	}
	return New(region)
}

func TestGetOrCreate_Basic(t *testing.T) {
	reg := newTestRegistry(t, 10)

	c, err := reg.GetOrCreate([]byte("requests"), TypeCounter)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if c.Name() != "requests" {
		t.Errorf("Expected name %q, got %q", "requests", c.Name())
	}
	if c.Type() != TypeCounter {
		t.Errorf("Expected type COUNTER, got %v", c.Type())
	}
	if c.Value() != 0 {
		t.Errorf("Expected fresh counter value 0, got %d", c.Value())
	}
	if reg.Count() != 1 {
		t.Errorf("Expected 1 live entry, got %d", reg.Count())
	}

	// Second call must resolve to the same slot, not create another
	again, err := reg.GetOrCreate([]byte("requests"), TypeCounter)
	if err != nil {
		t.Fatalf("GetOrCreate on existing name failed: %v", err)
	}
	c.Add(7)
	if again.Value() != 7 {
		t.Errorf("Expected both handles to share a slot, got %d", again.Value())
	}
	if reg.Count() != 1 {
		t.Errorf("Expected still 1 live entry, got %d", reg.Count())
	}
}

func TestGetOrCreate_IdempotentConcurrent(t *testing.T) {
	reg := newTestRegistry(t, 10)

	const goroutines = 32
	var wg sync.WaitGroup
	start := make(chan struct{})
	counters := make([]Counter, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			counters[i], errs[i] = reg.GetOrCreate([]byte("contended"), TypeCounter)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: GetOrCreate failed: %v", i, errs[i])
		}
		if counters[i].Name() != "contended" {
			t.Errorf("goroutine %d: wrong name %q", i, counters[i].Name())
		}
	}
	if reg.Count() != 1 {
		t.Fatalf("Expected exactly one slot created, got %d", reg.Count())
	}

	// All handles must reference the same slot: adds through any handle
	// are visible through every other
	for i := 0; i < goroutines; i++ {
		counters[i].Add(1)
	}
	if got := counters[0].Value(); got != goroutines {
		t.Errorf("Expected shared slot value %d, got %d", goroutines, got)
	}
}

func TestLookup_MonotonicVisibility(t *testing.T) {
	reg := newTestRegistry(t, 10)

	if _, ok := reg.Lookup([]byte("later")); ok {
		t.Fatal("Lookup found a name that was never created")
	}

	if _, err := reg.GetOrCreate([]byte("later"), TypeCounter); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	// Once created, every subsequent lookup from any goroutine finds it
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, ok := reg.Lookup([]byte("later")); !ok {
					t.Error("created name became un-found")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCounterAdd_PreviousValuesUnderContention(t *testing.T) {
	reg := newTestRegistry(t, 10)

	const goroutines = 64
	prevs := make([]int64, goroutines)
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			prev, ok, err := reg.CounterAdd([]byte("hits"), 1)
			if err != nil || !ok {
				t.Errorf("goroutine %d: CounterAdd failed: ok=%v err=%v", i, ok, err)
				return
			}
			prevs[i] = prev
		}(i)
	}
	close(start)
	wg.Wait()

	c, ok := reg.Lookup([]byte("hits"))
	if !ok {
		t.Fatal("counter not found after concurrent adds")
	}
	if c.Value() != goroutines {
		t.Errorf("Expected final value %d, got %d", goroutines, c.Value())
	}

	// Mutual exclusion on the slot means the pre-update values are a
	// permutation of 0..K-1, each observed exactly once
	seen := make(map[int64]int)
	for _, p := range prevs {
		seen[p]++
	}
	for want := int64(0); want < goroutines; want++ {
		if seen[want] != 1 {
			t.Errorf("previous value %d observed %d times, expected exactly once", want, seen[want])
		}
	}
}

func TestCapacityBoundary(t *testing.T) {
	reg := newTestRegistry(t, 10)

	for i := 0; i < 10; i++ {
		name := []byte(fmt.Sprintf("metric_%d", i))
		if _, err := reg.GetOrCreate(name, TypeCounter); err != nil {
			t.Fatalf("creating name %d failed: %v", i, err)
		}
	}
	if reg.Count() != 10 {
		t.Fatalf("Expected 10 live entries, got %d", reg.Count())
	}

	// The 11th distinct name is rejected as capacity exhaustion
	if _, err := reg.GetOrCreate([]byte("metric_10"), TypeCounter); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("Expected ErrCapacityExceeded, got %v", err)
	}

	// On the increment entry point the same condition is "no value",
	// not an error
	prev, ok, err := reg.CounterAdd([]byte("metric_10"), 1)
	if err != nil {
		t.Errorf("CounterAdd at capacity returned error: %v", err)
	}
	if ok {
		t.Errorf("CounterAdd at capacity returned a value: %d", prev)
	}

	// Existing names remain fully usable
	for i := 0; i < 10; i++ {
		name := []byte(fmt.Sprintf("metric_%d", i))
		if _, ok, err := reg.CounterAdd(name, 1); err != nil || !ok {
			t.Errorf("existing name %d no longer incrementable: ok=%v err=%v", i, ok, err)
		}
	}
	samples := reg.Snapshot()
	if len(samples) != 10 {
		t.Errorf("Expected 10 enumerated entries, got %d", len(samples))
	}
}

func TestNameLengthBoundary(t *testing.T) {
	reg := newTestRegistry(t, 10)

	exact := bytes.Repeat([]byte("n"), 127)
	if _, err := reg.GetOrCreate(exact, TypeCounter); err != nil {
		t.Fatalf("127-byte name rejected: %v", err)
	}

	tooLong := bytes.Repeat([]byte("n"), 128)
	if _, err := reg.GetOrCreate(tooLong, TypeCounter); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("Expected ErrNameTooLong from GetOrCreate, got %v", err)
	}
	if _, _, err := reg.CounterAdd(tooLong, 1); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("Expected ErrNameTooLong from CounterAdd, got %v", err)
	}

	// Validation happens before any state change
	if reg.Count() != 1 {
		t.Errorf("Expected 1 live entry after rejected names, got %d", reg.Count())
	}
}

func TestSnapshot_Completeness(t *testing.T) {
	reg := newTestRegistry(t, 10)

	want := map[string]int64{"A": 5, "B": -3, "C": 100}
	for name, value := range want {
		if _, ok, err := reg.CounterAdd([]byte(name), value); err != nil || !ok {
			t.Fatalf("CounterAdd(%q) failed: ok=%v err=%v", name, ok, err)
		}
	}

	samples := reg.Snapshot()
	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(samples))
	}
	got := make(map[string]int64)
	for _, s := range samples {
		if s.Type != TypeCounter {
			t.Errorf("sample %q: expected type COUNTER, got %v", s.Name, s.Type)
		}
		if s.Type.String() != "COUNTER" {
			t.Errorf("sample %q: expected type label COUNTER, got %q", s.Name, s.Type.String())
		}
		got[s.Name] = s.Value
	}
	for name, value := range want {
		if got[name] != value {
			t.Errorf("sample %q: expected value %d, got %d", name, value, got[name])
		}
	}
}

func TestCounterAdd_ZeroDeltaRoundTrip(t *testing.T) {
	reg := newTestRegistry(t, 10)

	if _, _, err := reg.CounterAdd([]byte("steady"), 42); err != nil {
		t.Fatalf("CounterAdd failed: %v", err)
	}

	prev, ok, err := reg.CounterAdd([]byte("steady"), 0)
	if err != nil || !ok {
		t.Fatalf("zero-delta CounterAdd failed: ok=%v err=%v", ok, err)
	}
	if prev != 42 {
		t.Errorf("Expected previous value 42, got %d", prev)
	}

	c, _ := reg.Lookup([]byte("steady"))
	if c.Value() != 42 {
		t.Errorf("zero delta modified state: got %d", c.Value())
	}
}

func TestCounterAdd_NegativeDelta(t *testing.T) {
	reg := newTestRegistry(t, 10)

	reg.CounterAdd([]byte("balance"), 10)
	prev, ok, _ := reg.CounterAdd([]byte("balance"), -25)
	if !ok || prev != 10 {
		t.Fatalf("Expected previous 10, got ok=%v prev=%d", ok, prev)
	}
	c, _ := reg.Lookup([]byte("balance"))
	if c.Value() != -15 {
		t.Errorf("Expected value -15, got %d", c.Value())
	}
}

func TestNilRegistry(t *testing.T) {
	var reg *Registry

	// Pre-bootstrap callers degrade to "no value", not a failure
	prev, ok, err := reg.CounterAdd([]byte("early"), 1)
	if err != nil {
		t.Errorf("nil registry CounterAdd returned error: %v", err)
	}
	if ok {
		t.Errorf("nil registry CounterAdd returned a value: %d", prev)
	}

	// Validation still fires first, even uninitialized
	if _, _, err := reg.CounterAdd(bytes.Repeat([]byte("x"), 128), 1); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("Expected ErrNameTooLong on nil registry, got %v", err)
	}

	if samples := reg.Snapshot(); samples != nil {
		t.Errorf("Expected nil snapshot from nil registry, got %d samples", len(samples))
	}
}

func TestNames_ByteExactKeys(t *testing.T) {
	reg := newTestRegistry(t, 10)

	// Names are raw byte sequences: case and embedded NUL bytes are
	// significant, no normalization is applied
	names := [][]byte{
		[]byte("metric"),
		[]byte("Metric"),
		[]byte("metric\x00a"),
		[]byte("metric\x00b"),
	}
	for i, name := range names {
		c, err := reg.GetOrCreate(name, TypeCounter)
		if err != nil {
			t.Fatalf("name %d rejected: %v", i, err)
		}
		c.Add(int64(i) + 1)
	}
	if reg.Count() != len(names) {
		t.Fatalf("Expected %d distinct entries, got %d", len(names), reg.Count())
	}
	for i, name := range names {
		c, ok := reg.Lookup(name)
		if !ok {
			t.Fatalf("name %d not found", i)
		}
		if c.Value() != int64(i)+1 {
			t.Errorf("name %d: expected value %d, got %d", i, i+1, c.Value())
		}
	}
}

func TestIndex_ProbingAtFullLoad(t *testing.T) {
	// Fill a registry to its limit so the open table reaches its
	// maximum load and probe chains actually occur, then verify every
	// name still resolves to its own slot
	const max = 100
	reg := newTestRegistry(t, max)

	for i := 0; i < max; i++ {
		name := []byte(fmt.Sprintf("series.%d.count", i))
		if _, ok, err := reg.CounterAdd(name, int64(i)); err != nil || !ok {
			t.Fatalf("CounterAdd(%d) failed: ok=%v err=%v", i, ok, err)
		}
	}
	for i := 0; i < max; i++ {
		name := []byte(fmt.Sprintf("series.%d.count", i))
		c, ok := reg.Lookup(name)
		if !ok {
			t.Fatalf("name %d not found at full load", i)
		}
		if c.Value() != int64(i) {
			t.Errorf("name %d: expected value %d, got %d", i, i, c.Value())
		}
	}
}

func TestConcurrent_CreatorsAndIncrementers(t *testing.T) {
	// Structural changes and value updates on disjoint names must not
	// interfere: creators churn new names while incrementers hammer an
	// existing one
	reg := newTestRegistry(t, 200)

	hot, err := reg.GetOrCreate([]byte("hot"), TypeCounter)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	const (
		creators     = 4
		namesEach    = 32
		incrementers = 4
		addsEach     = 500
	)
	var wg sync.WaitGroup
	for g := 0; g < creators; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < namesEach; i++ {
				name := []byte(fmt.Sprintf("cold_%d_%d", g, i))
				if _, err := reg.GetOrCreate(name, TypeCounter); err != nil {
					t.Errorf("creator %d: %v", g, err)
					return
				}
			}
		}(g)
	}
	for g := 0; g < incrementers; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < addsEach; i++ {
				hot.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := hot.Value(); got != incrementers*addsEach {
		t.Errorf("Expected hot counter %d, got %d", incrementers*addsEach, got)
	}
	if got := reg.Count(); got != 1+creators*namesEach {
		t.Errorf("Expected %d entries, got %d", 1+creators*namesEach, got)
	}
}

func BenchmarkCounterAdd_Existing(b *testing.B) {
	region, err := shm.NewAnonymous(100)
	if err != nil {
		b.Fatalf("failed to create region: %v", err)
	}
	reg := New(region)
	name := []byte("bench")
	reg.CounterAdd(name, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.CounterAdd(name, 1)
	}
}

func BenchmarkSnapshot_100(b *testing.B) {
	region, err := shm.NewAnonymous(100)
	if err != nil {
		b.Fatalf("failed to create region: %v", err)
	}
	reg := New(region)
	for i := 0; i < 100; i++ {
		reg.CounterAdd([]byte(fmt.Sprintf("metric_%d", i)), int64(i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.Snapshot()
	}
}
