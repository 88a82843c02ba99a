package shm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

var (
	// ErrIncompatible indicates a region file whose magic, version, or
	// recorded geometry does not match this build's layout.
	ErrIncompatible = errors.New("shm: incompatible region format")

	// ErrCorrupt indicates a region file whose size or header contents
	// are internally inconsistent.
	ErrCorrupt = errors.New("shm: corrupt region")

	// ErrBadLimit indicates an admission limit below MinEntries.
	ErrBadLimit = errors.New("shm: admission limit below minimum")
)

// Region is one attached shared memory region. The zero value is not
// usable; obtain a Region from Create, Attach, OpenOrCreate, or
// NewAnonymous. A Region value is a per-process handle: the underlying
// bytes may be shared with other processes, the handle itself is not.
type Region struct {
	data []byte
	file *os.File // nil for anonymous regions

	// geometry cached from the header at attach
	maxEntries  int
	bucketCount int
	slotsOff    int
}

// Create builds a fresh region file at path sized for maxEntries and
// returns it attached. It fails if the file already exists. The file is
// held under an exclusive flock while the header is written, so a
// concurrent Attach never observes a half-initialized header.
func Create(path string, maxEntries int) (*Region, error) {
	if maxEntries < MinEntries {
		return nil, fmt.Errorf("%w: %d < %d", ErrBadLimit, maxEntries, MinEntries)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("shm: create region file %q: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: lock region file %q: %w", path, err)
	}

	size := SizeFor(maxEntries)
	if err := f.Truncate(int64(size)); err != nil {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("shm: size region file %q: %w", path, err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("shm: map region file %q: %w", path, err)
	}

	r := &Region{data: data, file: f}
	r.initHeader(maxEntries)

	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return r, nil
}

// Attach maps an existing region file. The header is validated under a
// shared flock before the mapping is used, so attaching during another
// process's Create blocks until the header is complete.
func Attach(path string) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: open region file %q: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH); err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: lock region file %q: %w", path, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	header := make([]byte, HeaderSize)
	if _, err := f.ReadAt(header, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: read region header %q: %w", path, err)
	}

	maxEntries, err := validateHeader(header)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: region %q: %w", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: stat region file %q: %w", path, err)
	}
	size := SizeFor(maxEntries)
	if st.Size() != int64(size) {
		f.Close()
		return nil, fmt.Errorf("%w: file size %d, want %d for limit %d",
			ErrCorrupt, st.Size(), size, maxEntries)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: map region file %q: %w", path, err)
	}

	r := &Region{data: data, file: f}
	r.loadGeometry()
	return r, nil
}

// OpenOrCreate attaches the region at path, creating it first if it does
// not exist. This is the idempotent bootstrap entry: every process in
// the group may call it with the same arguments and exactly one ends up
// creating the file. maxEntries only applies on creation; an existing
// region keeps the limit it was created with.
func OpenOrCreate(path string, maxEntries int) (*Region, error) {
	r, err := Attach(path)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	r, err = Create(path, maxEntries)
	if err == nil {
		return r, nil
	}
	if errors.Is(err, os.ErrExist) {
		// Lost the creation race; the winner's flock makes Attach safe.
		return Attach(path)
	}
	return nil, err
}

// NewAnonymous builds a heap-backed region with the same layout as a
// file-backed one. It is shared between goroutines of one process only.
func NewAnonymous(maxEntries int) (*Region, error) {
	if maxEntries < MinEntries {
		return nil, fmt.Errorf("%w: %d < %d", ErrBadLimit, maxEntries, MinEntries)
	}

	size := SizeFor(maxEntries)
	// Back the byte block with a uint64 slice so every 64-bit field in
	// the layout is guaranteed 8-aligned for atomic access.
	words := make([]uint64, (size+7)/8)
	data := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)

	r := &Region{data: data}
	r.initHeader(maxEntries)
	return r, nil
}

// Close unmaps and closes a file-backed region. The region file itself
// is left in place so the process group can re-attach; use Remove to
// tear it down. Counter state reachable through slots obtained from this
// region must not be touched after Close.
func (r *Region) Close() error {
	if r.file == nil {
		r.data = nil
		return nil
	}
	data := r.data
	r.data = nil
	if err := unix.Munmap(data); err != nil {
		r.file.Close()
		return fmt.Errorf("shm: unmap region: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("shm: close region file: %w", err)
	}
	return nil
}

// Remove deletes a region file. Callers are responsible for making sure
// no process in the group is still attached.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("shm: remove region file %q: %w", path, err)
	}
	return nil
}

func (r *Region) initHeader(maxEntries int) {
	binary.LittleEndian.PutUint32(r.data[offMagic:], Magic)
	binary.LittleEndian.PutUint32(r.data[offVersion:], FormatVersion)
	binary.LittleEndian.PutUint32(r.data[offMaxEntries:], uint32(maxEntries))
	binary.LittleEndian.PutUint32(r.data[offBucketCount:], uint32(BucketCount(maxEntries)))
	binary.LittleEndian.PutUint32(r.data[offSlotSize:], SlotSize)
	id := uuid.New()
	copy(r.data[offUUID:offUUID+16], id[:])
	r.loadGeometry()
}

func (r *Region) loadGeometry() {
	r.maxEntries = int(binary.LittleEndian.Uint32(r.data[offMaxEntries:]))
	r.bucketCount = int(binary.LittleEndian.Uint32(r.data[offBucketCount:]))
	r.slotsOff = HeaderSize + r.bucketCount*4
}

func validateHeader(header []byte) (maxEntries int, err error) {
	if got := binary.LittleEndian.Uint32(header[offMagic:]); got != Magic {
		return 0, fmt.Errorf("%w: bad magic %#x", ErrIncompatible, got)
	}
	if got := binary.LittleEndian.Uint32(header[offVersion:]); got != FormatVersion {
		return 0, fmt.Errorf("%w: format version %d, want %d", ErrIncompatible, got, FormatVersion)
	}
	if got := binary.LittleEndian.Uint32(header[offSlotSize:]); got != SlotSize {
		return 0, fmt.Errorf("%w: slot size %d, want %d", ErrIncompatible, got, SlotSize)
	}

	maxEntries = int(binary.LittleEndian.Uint32(header[offMaxEntries:]))
	if maxEntries < MinEntries {
		return 0, fmt.Errorf("%w: admission limit %d below minimum", ErrCorrupt, maxEntries)
	}
	if got := int(binary.LittleEndian.Uint32(header[offBucketCount:])); got != BucketCount(maxEntries) {
		return 0, fmt.Errorf("%w: bucket count %d, want %d", ErrCorrupt, got, BucketCount(maxEntries))
	}
	return maxEntries, nil
}

// MaxEntries returns the admission limit the region was created with.
func (r *Region) MaxEntries() int { return r.maxEntries }

// BucketCountOf returns the hash index size of this region.
func (r *Region) BucketCountOf() int { return r.bucketCount }

// UUID returns the identity assigned to the region at creation. Every
// process attaching the same region observes the same UUID.
func (r *Region) UUID() uuid.UUID {
	var id uuid.UUID
	copy(id[:], r.data[offUUID:offUUID+16])
	return id
}

// CoarseLock returns the region-wide reader/writer lock guarding
// structural membership.
func (r *Region) CoarseLock() RWSpinLock {
	return RWSpinLock{word: r.u32(offCoarseLock)}
}

// Live returns the live-entry counter. It is mutated only while the
// coarse lock is held exclusively, and read under at least a shared
// hold.
func (r *Region) Live() *atomic.Uint64 {
	return (*atomic.Uint64)(unsafe.Pointer(&r.data[offLiveCount]))
}

// Bucket returns the slot reference stored in bucket i: a slot index
// plus one, with zero meaning empty.
func (r *Region) Bucket(i int) uint32 {
	return r.u32(HeaderSize + i*4).Load()
}

// SetBucket publishes a slot reference into bucket i. Callers hold the
// coarse lock exclusively.
func (r *Region) SetBucket(i int, ref uint32) {
	r.u32(HeaderSize + i*4).Store(ref)
}

// Slot returns an accessor for the i-th slot of the arena. The accessor
// is a cheap value; the slot bytes it reads and writes live in the
// shared region and never move.
func (r *Region) Slot(i int) Slot {
	return Slot{region: r, off: r.slotsOff + i*SlotSize}
}

func (r *Region) u32(off int) *atomic.Uint32 {
	return (*atomic.Uint32)(unsafe.Pointer(&r.data[off]))
}

// Slot is a view over one fixed-layout metric slot.
type Slot struct {
	region *Region
	off    int
}

// Type returns the slot's type tag.
func (s Slot) Type() uint32 {
	return s.region.u32(s.off + slotOffType).Load()
}

// SetType stores the slot's type tag. Set exactly once, during slot
// initialization under the exclusive coarse lock.
func (s Slot) SetType(t uint32) {
	s.region.u32(s.off + slotOffType).Store(t)
}

// Lock returns the slot's fine-grained value lock.
func (s Slot) Lock() SpinLock {
	return SpinLock{word: s.region.u32(s.off + slotOffLock)}
}

// Value reads the slot's 64-bit value. Callers hold the slot lock.
func (s Slot) Value() int64 {
	return (*atomic.Int64)(unsafe.Pointer(&s.region.data[s.off+slotOffValue])).Load()
}

// SetValue writes the slot's 64-bit value. Callers hold the slot lock.
func (s Slot) SetValue(v int64) {
	(*atomic.Int64)(unsafe.Pointer(&s.region.data[s.off+slotOffValue])).Store(v)
}

// Name returns the slot's inline name bytes. The returned slice aliases
// the shared region; the name is immutable once the slot is published,
// so reads need no lock.
func (s Slot) Name() []byte {
	n := int(s.region.u32(s.off + slotOffNameLen).Load())
	return s.region.data[s.off+slotOffName : s.off+slotOffName+n]
}

// SetName copies name into the slot's inline storage and records its
// length, with a terminator byte after the content. Called exactly once,
// during slot initialization under the exclusive coarse lock; the length
// store publishes last.
func (s Slot) SetName(name []byte) {
	copy(s.region.data[s.off+slotOffName:], name)
	s.region.data[s.off+slotOffName+len(name)] = 0
	s.region.u32(s.off + slotOffNameLen).Store(uint32(len(name)))
}
