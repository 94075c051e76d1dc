package heapsim

// snapshot.go is the snapshot half of the tracing component: a deep,
// structurally independent copy of arena state for an external viewer.

// ChunkView is the read-only projection of a Chunk exposed in a Snapshot.
type ChunkView struct {
	Size       uint64
	PrevSize   uint64
	InUse      bool
	PrevInUse  bool
	Fd, Bk     Address
	FdNextsize Address
	BkNextsize Address
}

// Snapshot is a deep, read-only view of the arena at one point in time.
// Arena mutations made after a Snapshot is taken are never observable
// through it — every field here is a fresh copy, never a reference into
// arena.bins or arena.store.
type Snapshot struct {
	Top     Address
	TopSize uint64

	Fastbins  [fastbinCount]Address
	Unsorted  Address
	Smallbins [smallbinCount]Address
	Largebins [largebinCount]Address

	Tcache map[uint64][]Address

	Chunks map[Address]ChunkView
}

// snapshot builds a Snapshot from the live arena state, copying values out
// of the live *Chunk records so that no caller ever sees one (as
// ChunkByUserPointer and Metrics also do).
func (a *Arena) snapshot() Snapshot {
	s := Snapshot{
		Top:       a.top,
		TopSize:   mustGet(a.store, a.top).Size,
		Fastbins:  a.bins.fastbin,
		Unsorted:  a.bins.unsorted,
		Smallbins: a.bins.smallbin,
		Largebins: a.bins.largeSize,
		Tcache:    make(map[uint64][]Address, len(a.bins.tcache)),
		Chunks:    make(map[Address]ChunkView, len(a.store.chunks)),
	}
	for size, addrs := range a.bins.tcache {
		cp := make([]Address, len(addrs))
		copy(cp, addrs)
		s.Tcache[size] = cp
	}
	for addr, c := range a.store.chunks {
		s.Chunks[addr] = ChunkView{
			Size:       c.Size,
			PrevSize:   c.PrevSize,
			InUse:      c.InUse,
			PrevInUse:  c.PrevInUse,
			Fd:         c.Fd,
			Bk:         c.Bk,
			FdNextsize: c.FdNextsize,
			BkNextsize: c.BkNextsize,
		}
	}
	return s
}
