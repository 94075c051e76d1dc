package heapsim

import "fmt"

// consolidate.go implements coalescing and fastbin consolidation.

// binLabel names the container a chunk currently sits in, for event
// payloads' bin-insert/bin-unlink "bin" field.
func binLabel(c *Chunk) string {
	switch c.container {
	case containerUnsorted:
		return "unsorted"
	case containerSmallbin:
		return fmt.Sprintf("smallbin[%d]", c.binIndex)
	case containerLargebin:
		return fmt.Sprintf("largebin[%d]", c.binIndex)
	default:
		invariantViolation("binLabel called on non-binned chunk %s (container=%d)", addrHex(c.Addr), c.container)
		return ""
	}
}

// unlinkFree removes a coalesce-eligible free chunk from whatever
// container currently owns it. Only unsorted/smallbin/largebin residents
// are ever passed here — fastbin and tcache members are excluded by
// Chunk.coalesceEligible before this is called.
func (a *Arena) unlinkFree(c *Chunk) {
	switch c.container {
	case containerUnsorted:
		a.bins.unsorted = ringUnlink(a.store, addrRing, a.bins.unsorted, c.Addr)
	case containerSmallbin:
		idx := c.binIndex
		a.bins.smallbin[idx] = ringUnlink(a.store, addrRing, a.bins.smallbin[idx], c.Addr)
	case containerLargebin:
		a.bins.largebinUnlink(a.store, c.binIndex, c.Addr)
	default:
		invariantViolation("unlinkFree called on non-binned chunk %s (container=%d)", addrHex(c.Addr), c.container)
	}
}

// coalesce merges c (at addr, already free) with any physically adjacent
// free neighbours eligible for coalescing, and returns the address of the
// resulting chunk. Forward merging never crosses into the top chunk —
// absorbing the old top is the release engine's responsibility, not
// coalesce's.
func (a *Arena) coalesce(addr Address) Address {
	c := mustGet(a.store, addr)
	c.InUse = false

	parts := []Address{addr}

	if next, ok := a.store.next(c); ok && next.Addr != a.top && !next.InUse && next.coalesceEligible() {
		a.emit(Event{
			Type: EventBinUnlink,
			Msg:  fmt.Sprintf("%s: unlink %s (forward coalesce)", binLabel(next), addrHex(next.Addr)),
			Bin:  &BinPayload{Bin: binLabel(next), Addr: next.Addr, Size: next.Size},
		})
		a.unlinkFree(next)
		parts = append(parts, next.Addr)
		c.Size += next.Size
		a.store.delete(next.Addr)
	}

	if prev, ok := a.store.prev(c); ok && prev.coalesceEligible() {
		a.emit(Event{
			Type: EventBinUnlink,
			Msg:  fmt.Sprintf("%s: unlink %s (backward coalesce)", binLabel(prev), addrHex(prev.Addr)),
			Bin:  &BinPayload{Bin: binLabel(prev), Addr: prev.Addr, Size: prev.Size},
		})
		a.unlinkFree(prev)
		parts = append([]Address{prev.Addr}, parts...)
		prev.Size += c.Size
		a.store.delete(c.Addr)
		c = prev
		addr = prev.Addr
	}

	if next, ok := a.store.next(c); ok {
		next.PrevInUse = false
		next.PrevSize = c.Size
	}
	c.container = containerNone

	if len(parts) > 1 {
		a.emit(Event{
			Type: EventCoalesce,
			Msg:  fmt.Sprintf("coalesce %v -> %s (%d bytes)", hexAll(parts), addrHex(addr), c.Size),
			Coalesce: &CoalescePayload{
				Result: addr,
				Size:   c.Size,
				Parts:  parts,
			},
		})
	}

	return addr
}

func hexAll(addrs []Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = addrHex(a)
	}
	return out
}

// mallocConsolidate drains every fastbin, coalescing each member with its
// neighbours and routing the result into top or unsorted, exactly as a
// normal free would after the fastbin/tcache short-circuit. It emits a
// single consolidate event if any chunk actually moved.
func (a *Arena) mallocConsolidate() {
	moved := false

	for idx := 0; idx < fastbinCount; idx++ {
		for _, addr := range a.bins.fastbinDrain(a.store, idx) {
			moved = true
			c := mustGet(a.store, addr)
			c.container = containerNone

			merged := a.coalesce(addr)
			mc := mustGet(a.store, merged)

			if merged+Address(mc.Size) == a.top {
				a.absorbTopInto(mc)
			} else {
				a.insertIntoUnsorted(mc)
			}
		}
	}

	if moved {
		a.emit(Event{
			Type: EventConsolidate,
			Msg:  "mallocConsolidate: drained fastbins into unsorted/top",
		})
	}
}
