package heapsim

import "fmt"

// free.go is the release engine: routes a freed chunk to tcache, fastbin,
// or (after coalescing) unsorted/top.

// release routes a freed chunk through the tiered free-list search order.
func (a *Arena) release(ptr Address) {
	if ptr == noAddress {
		a.emit(Event{
			Type: EventError,
			Msg:  "free(0): no-op",
		})
		return
	}

	addr := chunkAddrFromUserPointer(ptr)
	c, ok := a.store.get(addr)
	if !ok || !c.InUse {
		a.emit(Event{
			Type: EventError,
			Msg:  fmt.Sprintf("double free or invalid: %s", addrHex(ptr)),
		})
		return
	}

	c.free()
	nb := c.Size

	if ok := a.bins.tcachePush(nb, addr, c); ok {
		a.emit(Event{
			Type:   EventTcachePut,
			Msg:    fmt.Sprintf("tcache[%d]: put %s", nb, addrHex(addr)),
			Tcache: &TcachePayload{Size: nb},
		})
		a.emit(Event{
			Type: EventFree,
			Msg:  fmt.Sprintf("free(%s) -> tcache", addrHex(ptr)),
			Free: &FreePayload{Ptr: ptr, Size: nb, Into: "tcache"},
		})
		return
	}

	if idx := fastbinIndex(nb); idx >= 0 {
		a.bins.fastbinPush(a.store, idx, c)
		a.emit(Event{
			Type: EventBinInsert,
			Msg:  fmt.Sprintf("fastbin[%d]: insert %s", idx, addrHex(addr)),
			Bin:  &BinPayload{Bin: fmt.Sprintf("fastbin[%d]", idx), Addr: addr, Size: nb},
		})
		a.emit(Event{
			Type: EventFree,
			Msg:  fmt.Sprintf("free(%s) -> fastbin", addrHex(ptr)),
			Free: &FreePayload{Ptr: ptr, Size: nb, Into: "fastbin"},
		})
		return
	}

	merged := a.coalesce(addr)
	mc := mustGet(a.store, merged)

	if merged+Address(mc.Size) == a.top {
		a.absorbTopInto(mc)
		a.emit(Event{
			Type: EventFree,
			Msg:  fmt.Sprintf("free(%s) -> top", addrHex(ptr)),
			Free: &FreePayload{Ptr: ptr, Size: mc.Size, Into: "top"},
		})
		return
	}

	a.insertIntoUnsorted(mc)
	a.emit(Event{
		Type: EventFree,
		Msg:  fmt.Sprintf("free(%s) -> unsorted", addrHex(ptr)),
		Free: &FreePayload{Ptr: ptr, Size: mc.Size, Into: "unsorted"},
	})
}

// insertIntoUnsorted files a freshly coalesced chunk into the unsorted
// bin. Freed chunks always land in unsorted, never directly in a
// smallbin/largebin — only split remainders (alloc.go) take the
// size-classified route.
func (a *Arena) insertIntoUnsorted(c *Chunk) {
	a.bins.unsortedInsert(a.store, c)
	a.emit(Event{
		Type: EventBinInsert,
		Msg:  fmt.Sprintf("unsorted: insert %s", addrHex(c.Addr)),
		Bin:  &BinPayload{Bin: "unsorted", Addr: c.Addr, Size: c.Size},
	})
}

// absorbTopInto merges the old top chunk into mc, making mc the new top.
// mc itself already physically abuts the old top (caller checked).
func (a *Arena) absorbTopInto(mc *Chunk) {
	oldTop := mustGet(a.store, a.top)
	mc.Size += oldTop.Size
	a.store.delete(a.top)
	mc.container = containerTop
	a.top = mc.Addr
}
