package heapsim

// metrics.go adds read-only, derived statistics on top of the allocator
// core, pointed at bin occupancy and heap growth rather than any
// "current chunk" notion, since a segregated-fit allocator has none. These
// are viewer conveniences; they introduce no new allocator semantics and
// are never read by alloc.go/free.go.

// ArenaMetrics is a snapshot of arena-wide statistics.
type ArenaMetrics struct {
	TotalChunks  int     // number of chunk records currently tracked
	InUseChunks  int     // chunks currently allocated to a user
	FreeChunks   int     // chunks currently free in some tier (or top)
	HeapBytes    uint64  // total bytes spanned by the arena (base..top+topSize)
	BytesInUse   uint64  // sum of Size over in-use chunks
	TopSize      uint64  // size of the current top chunk
	Utilization  float64 // BytesInUse / HeapBytes, 0 if HeapBytes == 0
	FastbinCount int     // chunks currently parked in any fastbin
	TcacheCount  int     // chunks currently parked in the tcache
}

// Metrics computes a fresh ArenaMetrics from current arena state.
func (a *Arena) Metrics() ArenaMetrics {
	var m ArenaMetrics
	for _, c := range a.store.chunks {
		m.TotalChunks++
		if c.InUse {
			m.InUseChunks++
			m.BytesInUse += c.Size
		} else {
			m.FreeChunks++
		}
	}
	top := mustGet(a.store, a.top)
	m.TopSize = top.Size
	m.HeapBytes = uint64(top.Addr-a.store.base) + top.Size

	if m.HeapBytes > 0 {
		m.Utilization = float64(m.BytesInUse) / float64(m.HeapBytes)
	}

	for _, head := range a.bins.fastbin {
		for addr := head; addr != noAddress; {
			m.FastbinCount++
			addr = mustGet(a.store, addr).Fd
		}
	}
	for _, addrs := range a.bins.tcache {
		m.TcacheCount += len(addrs)
	}
	return m
}
