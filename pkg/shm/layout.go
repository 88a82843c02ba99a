package shm

// Region format constants. Changing any of these is a format break and
// requires bumping FormatVersion: existing region files would otherwise
// be misinterpreted on attach.
const (
	// Magic identifies a stathive region file ("STHV" little-endian).
	Magic uint32 = 0x56485453

	// FormatVersion is the on-disk/in-memory layout version.
	FormatVersion uint32 = 1

	// HeaderSize is the fixed size of the region header in bytes.
	HeaderSize = 64

	// MaxNameLen is the maximum length of a metric name in bytes.
	MaxNameLen = 127

	// nameCapacity is the inline name storage per slot: MaxNameLen
	// usable bytes plus a terminator byte.
	nameCapacity = MaxNameLen + 1

	// slotHeaderSize covers the slot's fixed fields: type tag (u32),
	// lock word (u32), value (i64), name length (u32), padding (u32).
	// The padding keeps the inline name 8-aligned and the slot size a
	// multiple of 8 so every slot's value field stays 8-aligned.
	slotHeaderSize = 24

	// SlotSize is the full fixed size of one metric slot.
	SlotSize = slotHeaderSize + nameCapacity

	// MinEntries is the smallest admission limit a region can be
	// created with.
	MinEntries = 10

	// minBuckets floors the hash index size for very small limits.
	minBuckets = 16
)

// Header field offsets. The live count and the 16-byte UUID sit at
// 8-aligned offsets; the remainder of the 64 bytes is reserved.
const (
	offMagic       = 0
	offVersion     = 4
	offMaxEntries  = 8
	offBucketCount = 12
	offSlotSize    = 16
	offLiveCount   = 24
	offCoarseLock  = 32
	offUUID        = 40
)

// Slot field offsets, relative to the slot base.
const (
	slotOffType    = 0
	slotOffLock    = 4
	slotOffValue   = 8
	slotOffNameLen = 16
	slotOffName    = 24
)

// BucketCount returns the hash index size for a given admission limit:
// the next power of two at or above twice the limit, so the open table
// never exceeds a 0.5 load factor and probe chains stay short. Power of
// two keeps the probe step a mask instead of a modulo.
func BucketCount(maxEntries int) int {
	n := minBuckets
	for n < 2*maxEntries {
		n <<= 1
	}
	return n
}

// SizeFor returns the total region size in bytes for a given admission
// limit. It must be a pure function of its argument: every process that
// attaches a region recomputes it to validate the mapping.
func SizeFor(maxEntries int) int {
	return HeaderSize + BucketCount(maxEntries)*4 + maxEntries*SlotSize
}
