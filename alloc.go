package heapsim

import "fmt"

// alloc.go is the allocation engine: the ordered tcache -> fastbin ->
// (opportunistic consolidate) -> smallbin -> unsorted -> largebin -> top
// search, with the associated splitting policy.

// allocate runs the full search order for one user request and returns the
// resulting user pointer. It always succeeds — the simulator always grows
// the top rather than simulating out-of-memory.
func (a *Arena) allocate(reqBytes uint64) Address {
	nb := request2size(reqBytes)

	if addr, ok := a.tryTcache(nb); ok {
		return a.finishAllocation(addr, reqBytes, nb, "tcache")
	}

	if addr, ok := a.tryFastbin(nb); ok {
		return a.finishAllocation(addr, reqBytes, nb, "fastbin")
	}

	if mustGet(a.store, a.top).Size < fastbinConsolidationThreshold {
		a.mallocConsolidate()
	}

	if addr, ok := a.trySmallbin(nb); ok {
		return a.finishAllocation(addr, reqBytes, nb, fmt.Sprintf("smallbin[%d]", smallbinIndex(nb)))
	}

	if addr, ok := a.tryUnsorted(nb); ok {
		return a.finishAllocation(addr, reqBytes, nb, "unsorted")
	}

	if addr, ok := a.tryLargebin(nb); ok {
		return a.finishAllocation(addr, reqBytes, nb, "largebin")
	}

	addr := a.allocateFromTop(nb)
	return a.finishAllocation(addr, reqBytes, nb, "top")
}

// finishAllocation marks the returned chunk in-use, fixes up the
// successor's prev_inuse bookkeeping, and emits the summary malloc event.
// It is the common tail of every search-order branch.
func (a *Arena) finishAllocation(addr Address, reqBytes, nb uint64, source string) Address {
	c := mustGet(a.store, addr)
	c.markInUse()
	if next, ok := a.store.next(c); ok {
		next.PrevInUse = true
	}
	a.emit(Event{
		Type: EventMalloc,
		Msg:  fmt.Sprintf("malloc(%d) -> %s via %s", reqBytes, addrHex(c.UserPointer()), source),
		Malloc: &MallocPayload{
			Bytes:  reqBytes,
			Nb:     nb,
			Result: c.UserPointer(),
			Source: source,
		},
	})
	return c.UserPointer()
}

func (a *Arena) tryTcache(nb uint64) (Address, bool) {
	if !tcacheEligible(nb) {
		return noAddress, false
	}
	addr, ok := a.bins.tcachePop(nb)
	if !ok {
		return noAddress, false
	}
	a.emit(Event{
		Type:   EventTcacheGet,
		Msg:    fmt.Sprintf("tcache[%d]: take %s", nb, addrHex(addr)),
		Tcache: &TcachePayload{Size: nb},
	})
	return addr, true
}

func (a *Arena) tryFastbin(nb uint64) (Address, bool) {
	idx := fastbinIndex(nb)
	if idx < 0 {
		return noAddress, false
	}
	addr, ok := a.bins.fastbinPop(a.store, idx)
	if !ok {
		return noAddress, false
	}
	a.emit(Event{
		Type: EventBinUnlink,
		Msg:  fmt.Sprintf("fastbin[%d]: take %s", idx, addrHex(addr)),
		Bin:  &BinPayload{Bin: fmt.Sprintf("fastbin[%d]", idx), Addr: addr, Size: nb},
	})
	return addr, true
}

func (a *Arena) trySmallbin(nb uint64) (Address, bool) {
	idx := smallbinIndex(nb)
	if idx < 0 {
		return noAddress, false
	}
	addr, ok := a.bins.smallbinTakeHead(a.store, idx)
	if !ok {
		return noAddress, false
	}
	a.emit(Event{
		Type: EventBinUnlink,
		Msg:  fmt.Sprintf("smallbin[%d]: take %s", idx, addrHex(addr)),
		Bin:  &BinPayload{Bin: fmt.Sprintf("smallbin[%d]", idx), Addr: addr, Size: nb},
	})
	return addr, true
}

func (a *Arena) tryUnsorted(nb uint64) (Address, bool) {
	addr, ok := a.bins.unsortedScanAndTake(a.store, func(c *Chunk) bool {
		return c.Size >= nb
	})
	if !ok {
		return noAddress, false
	}
	a.emit(Event{
		Type: EventBinUnlink,
		Msg:  fmt.Sprintf("unsorted: take %s", addrHex(addr)),
		Bin:  &BinPayload{Bin: "unsorted", Addr: addr, Size: mustGet(a.store, addr).Size},
	})
	return a.splitOrWhole(addr, nb), true
}

func (a *Arena) tryLargebin(nb uint64) (Address, bool) {
	addr, ok := a.bins.largebinSearch(a.store, nb)
	if !ok {
		return noAddress, false
	}
	c := mustGet(a.store, addr)
	a.emit(Event{
		Type: EventBinUnlink,
		Msg:  fmt.Sprintf("largebin[%d]: take %s", largebinIndex(c.Size), addrHex(addr)),
		Bin:  &BinPayload{Bin: fmt.Sprintf("largebin[%d]", largebinIndex(c.Size)), Addr: addr, Size: c.Size},
	})
	return a.splitOrWhole(addr, nb), true
}

// splitOrWhole applies the split policy to a chunk found in the unsorted or
// largebin tiers: if the remainder would be at least
// MIN_CHUNK_SIZE+ALIGNMENT, split off nb bytes at the low address and file
// the remainder into its appropriate bin; otherwise return the whole chunk.
func (a *Arena) splitOrWhole(addr Address, nb uint64) Address {
	c := mustGet(a.store, addr)
	remSize := c.Size - nb
	if remSize < minChunkSize+alignment {
		return addr
	}

	rem := &Chunk{
		Addr:      c.Addr + Address(nb),
		Size:      remSize,
		PrevInUse: true, // c (the returned portion) will be marked in-use
	}
	c.Size = nb
	a.store.put(rem)

	if next, ok := a.store.next(rem); ok {
		next.PrevInUse = false
		next.PrevSize = rem.Size
	}

	a.emit(Event{
		Type: EventSplit,
		Msg:  fmt.Sprintf("split %s into %s (%d) + %s (%d)", addrHex(c.Addr), addrHex(c.Addr), nb, addrHex(rem.Addr), remSize),
		Split: &SplitPayload{
			From:  c.Addr,
			Into:  [2]Address{c.Addr, rem.Addr},
			Sizes: [2]uint64{nb, remSize},
		},
	})

	a.insertIntoSmallOrLargebin(rem)
	return addr
}

// insertIntoSmallOrLargebin files a free chunk (a split remainder) into its
// smallbin if it fits there, else its largebin, emitting a bin-insert event
// either way.
func (a *Arena) insertIntoSmallOrLargebin(c *Chunk) {
	if idx := smallbinIndex(c.Size); idx >= 0 {
		a.bins.smallbinInsert(a.store, idx, c)
		a.emit(Event{
			Type: EventBinInsert,
			Msg:  fmt.Sprintf("smallbin[%d]: insert %s", idx, addrHex(c.Addr)),
			Bin:  &BinPayload{Bin: fmt.Sprintf("smallbin[%d]", idx), Addr: c.Addr, Size: c.Size},
		})
		return
	}
	idx := largebinIndex(c.Size)
	a.bins.largebinInsert(a.store, idx, c)
	a.emit(Event{
		Type: EventBinInsert,
		Msg:  fmt.Sprintf("largebin[%d]: insert %s", idx, addrHex(c.Addr)),
		Bin:  &BinPayload{Bin: fmt.Sprintf("largebin[%d]", idx), Addr: c.Addr, Size: c.Size},
	})
}

// allocateFromTop is step 7: grow the top via sysmalloc if it's too small,
// then split it into the returned chunk (low address) and the new,
// smaller top.
func (a *Arena) allocateFromTop(nb uint64) Address {
	top := mustGet(a.store, a.top)
	if top.Size < nb {
		a.sysmalloc(nb)
		top = mustGet(a.store, a.top)
	}

	addr := top.Addr
	remSize := top.Size - nb
	newTopAddr := top.Addr + Address(nb)

	top.Size = nb // top chunk record becomes the returned chunk in place;
	// a fresh record is created at newTopAddr for the new top below.

	newTop := &Chunk{
		Addr:      newTopAddr,
		Size:      remSize,
		PrevInUse: true, // the returned chunk will be marked in-use
		container: containerTop,
	}
	a.store.put(newTop)
	a.top = newTopAddr

	a.emit(Event{
		Type: EventSplit,
		Msg:  fmt.Sprintf("split top %s into %s (%d) + new top %s (%d)", addrHex(addr), addrHex(addr), nb, addrHex(newTopAddr), remSize),
		Split: &SplitPayload{
			From:  addr,
			Into:  [2]Address{addr, newTopAddr},
			Sizes: [2]uint64{nb, remSize},
		},
	})
	return addr
}

// sysmalloc grows the top by at least max(nb, 65536) bytes, aligned up.
func (a *Arena) sysmalloc(nb uint64) {
	growth := nb
	if growth < sysmallocGrowthFloor {
		growth = sysmallocGrowthFloor
	}
	growth = alignUp(growth, alignment)

	top := mustGet(a.store, a.top)
	oldTop := top.Addr
	top.Size += growth

	a.emit(Event{
		Type: EventSysmalloc,
		Msg:  fmt.Sprintf("sysmalloc grows top %s by %d bytes", addrHex(oldTop), growth),
		Sysmalloc: &SysmallocPayload{
			Bytes:  growth,
			OldTop: oldTop,
			NewTop: top.Addr,
		},
	})
}
