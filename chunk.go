package heapsim

// container names which free-list tier, if any, currently owns a chunk.
// Stored on the chunk itself (a back-pointer, in place of a linear
// unsorted->smallbins->largebins scan) so coalescing can answer "which bin
// is this chunk in" in O(1) and so it can tell fastbin/tcache residents
// (never coalesce-eligible) apart from unsorted/smallbin/largebin
// residents (always coalesce-eligible).
type container uint8

const (
	containerNone container = iota
	containerInUse
	containerTop
	containerTcache
	containerFastbin
	containerUnsorted
	containerSmallbin
	containerLargebin
)

// Chunk is a contiguous region of the simulated heap: one header record,
// never a live byte payload (see doc.go).
type Chunk struct {
	Addr     Address
	Size     uint64 // total size including the 16-byte header; multiple of 16
	PrevSize uint64 // size of the physically preceding chunk, iff it is free

	InUse     bool
	PrevInUse bool // whether the physically preceding chunk is in use

	Fd, Bk                 Address // bin-list neighbours (noAddress if absent)
	FdNextsize, BkNextsize Address // largebin size-ring neighbours

	container container // which tier currently owns this chunk
	binIndex  int       // meaningful only when container needs a slot index
}

// UserPointer is the address handed back to callers: the byte right past
// the chunk header.
func (c *Chunk) UserPointer() Address {
	return c.Addr + headerOverhead
}

// chunkAddrFromUserPointer inverts UserPointer.
func chunkAddrFromUserPointer(p Address) Address {
	return p - headerOverhead
}

// free marks c as not currently allocated to a user. It does not touch bin
// membership or neighbour bookkeeping — callers are responsible for those,
// since the right bin (if any) depends on which release step handles c.
func (c *Chunk) free() {
	c.InUse = false
	c.container = containerNone
}

// markInUse marks c as allocated and clears any stale bin-list links — a
// chunk leaving a bin is never left pointing at former bin neighbours.
func (c *Chunk) markInUse() {
	c.InUse = true
	c.container = containerInUse
	c.Fd, c.Bk = noAddress, noAddress
	c.FdNextsize, c.BkNextsize = noAddress, noAddress
	c.binIndex = 0
}

// coalesceEligible reports whether c may be merged into during neighbour
// coalescing: unsorted, smallbin, and largebin residents qualify; fastbin
// and tcache residents never do.
func (c *Chunk) coalesceEligible() bool {
	switch c.container {
	case containerUnsorted, containerSmallbin, containerLargebin:
		return true
	default:
		return false
	}
}
