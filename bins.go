package heapsim

// bins.go is the bin-containers component: fastbins, unsorted bin,
// smallbins, largebins, and tcache. Every container stores
// only Address values and resolves them through a chunkStore — there are
// no live pointers anywhere, which is what makes Snapshot a cheap, deep,
// structurally independent copy (see snapshot.go).
type bins struct {
	fastbin  [fastbinCount]Address
	unsorted Address
	smallbin [smallbinCount]Address
	// largeAddr/largeSize are the two independent rings every largebin
	// element participates in: largeAddr is insertion-order (fd/bk),
	// largeSize is ascending-by-size (fd_nextsize/bk_nextsize).
	// Search only ever walks largeSize; largeAddr exists so a viewer can
	// display the address ring the data model promises.
	largeAddr [largebinCount]Address
	largeSize [largebinCount]Address

	tcache map[uint64][]Address
}

func newBins() *bins {
	return &bins{tcache: make(map[uint64][]Address)}
}

// --- fastbin: singly-linked LIFO, exact size per slot ---

func (b *bins) fastbinPush(store *chunkStore, idx int, c *Chunk) {
	c.Fd = b.fastbin[idx]
	c.Bk = noAddress
	c.container = containerFastbin
	c.binIndex = idx
	b.fastbin[idx] = c.Addr
}

func (b *bins) fastbinPop(store *chunkStore, idx int) (Address, bool) {
	head := b.fastbin[idx]
	if head == noAddress {
		return noAddress, false
	}
	c := mustGet(store, head)
	b.fastbin[idx] = c.Fd
	c.Fd = noAddress
	return head, true
}

// fastbinDrain empties slot idx and returns its members head-first (i.e. in
// LIFO order), for mallocConsolidate.
func (b *bins) fastbinDrain(store *chunkStore, idx int) []Address {
	var out []Address
	addr := b.fastbin[idx]
	b.fastbin[idx] = noAddress
	for addr != noAddress {
		c := mustGet(store, addr)
		out = append(out, addr)
		next := c.Fd
		c.Fd = noAddress
		addr = next
	}
	return out
}

// --- generic circular doubly-linked list helpers, parameterised over
// which pair of link fields on Chunk form the ring. unsorted, smallbins,
// and the largebin address ring all use fd/bk; the largebin size ring uses
// fd_nextsize/bk_nextsize. ---

type ringFields struct {
	get func(c *Chunk) (fd, bk Address)
	set func(c *Chunk, fd, bk Address)
}

var addrRing = ringFields{
	get: func(c *Chunk) (Address, Address) { return c.Fd, c.Bk },
	set: func(c *Chunk, fd, bk Address) { c.Fd, c.Bk = fd, bk },
}

var sizeRing = ringFields{
	get: func(c *Chunk) (Address, Address) { return c.FdNextsize, c.BkNextsize },
	set: func(c *Chunk, fd, bk Address) { c.FdNextsize, c.BkNextsize = fd, bk },
}

// ringInsertTail appends newAddr immediately before head (i.e. at the tail
// of the circular list), the insertion rule for unsorted/smallbin/the
// largebin address ring.
func ringInsertTail(store *chunkStore, rf ringFields, head Address, newAddr Address) Address {
	nc := mustGet(store, newAddr)
	if head == noAddress {
		rf.set(nc, newAddr, newAddr)
		return newAddr
	}
	hc := mustGet(store, head)
	_, oldTail := rf.get(hc)
	tc := mustGet(store, oldTail)
	_, tBk := rf.get(tc)

	rf.set(tc, newAddr, tBk)  // old tail's fd now points at the new node
	rf.set(nc, head, oldTail) // new node sits between old tail and head
	hFd, _ := rf.get(hc)      // re-read: when head is the old tail, its fd was just set
	rf.set(hc, hFd, newAddr)  // head's bk (tail pointer) now the new node
	return head
}

// ringUnlink removes addr from its circular list, returning the (possibly
// updated) head. Caller must pass the list's current head.
func ringUnlink(store *chunkStore, rf ringFields, head Address, addr Address) Address {
	c := mustGet(store, addr)
	fd, bk := rf.get(c)
	if fd == addr { // singleton
		rf.set(c, noAddress, noAddress)
		return noAddress
	}
	if fd == bk { // exactly two elements, addr and fd == bk: fd is the sole survivor
		survivor := mustGet(store, fd)
		rf.set(survivor, fd, fd)
	} else {
		fc := mustGet(store, fd)
		bc := mustGet(store, bk)
		fcFd, _ := rf.get(fc)
		_, bcBk := rf.get(bc)
		rf.set(fc, fcFd, bk)
		rf.set(bc, fd, bcBk)
	}
	rf.set(c, noAddress, noAddress)
	if head == addr {
		return fd
	}
	return head
}

// --- unsorted bin ---

func (b *bins) unsortedInsert(store *chunkStore, c *Chunk) {
	b.unsorted = ringInsertTail(store, addrRing, b.unsorted, c.Addr)
	c.container = containerUnsorted
}

// unsortedScanAndTake walks the unsorted bin forward from head for at most
// one full revolution, taking the first chunk satisfying pred. It bounds
// the walk by revisiting the starting address rather than trusting fd is
// never nil, so a malformed list can never spin forever.
func (b *bins) unsortedScanAndTake(store *chunkStore, pred func(*Chunk) bool) (Address, bool) {
	start := b.unsorted
	if start == noAddress {
		return noAddress, false
	}
	cur := start
	for first := true; first || cur != start; first = false {
		c := mustGet(store, cur)
		next := c.Fd
		if pred(c) {
			b.unsorted = ringUnlink(store, addrRing, b.unsorted, cur)
			c.container = containerNone
			return cur, true
		}
		cur = next
		if cur == noAddress {
			break
		}
	}
	return noAddress, false
}

// --- smallbins: FIFO, exact size per slot ---

func (b *bins) smallbinInsert(store *chunkStore, idx int, c *Chunk) {
	b.smallbin[idx] = ringInsertTail(store, addrRing, b.smallbin[idx], c.Addr)
	c.container = containerSmallbin
	c.binIndex = idx
}

func (b *bins) smallbinTakeHead(store *chunkStore, idx int) (Address, bool) {
	head := b.smallbin[idx]
	if head == noAddress {
		return noAddress, false
	}
	b.smallbin[idx] = ringUnlink(store, addrRing, head, head)
	c := mustGet(store, head)
	c.container = containerNone
	return head, true
}

// --- largebins: address ring + ascending size ring ---

func (b *bins) largebinInsert(store *chunkStore, idx int, c *Chunk) {
	b.largeAddr[idx] = ringInsertTail(store, addrRing, b.largeAddr[idx], c.Addr)

	head := b.largeSize[idx]
	if head == noAddress {
		c.FdNextsize, c.BkNextsize = c.Addr, c.Addr
		b.largeSize[idx] = c.Addr
		c.container = containerLargebin
		c.binIndex = idx
		return
	}
	// Find the first node of strictly greater size; insert immediately
	// before it. Equal sizes land after the existing run of equal-size
	// nodes, preserving insertion order among ties.
	cur := head
	for {
		cn := mustGet(store, cur)
		if cn.Size > c.Size {
			break
		}
		cur = cn.FdNextsize
		if cur == head {
			cur = noAddress
			break
		}
	}
	if cur == noAddress {
		// newest/largest: insert at tail, i.e. immediately before head.
		tailC := mustGet(store, head).BkNextsize
		tn := mustGet(store, tailC)
		hn := mustGet(store, head)
		tn.FdNextsize = c.Addr
		c.BkNextsize = tailC
		c.FdNextsize = head
		hn.BkNextsize = c.Addr
	} else {
		target := mustGet(store, cur)
		prevAddr := target.BkNextsize
		prevC := mustGet(store, prevAddr)
		prevC.FdNextsize = c.Addr
		c.BkNextsize = prevAddr
		c.FdNextsize = cur
		target.BkNextsize = c.Addr
		if cur == head {
			b.largeSize[idx] = c.Addr
		}
	}
	c.container = containerLargebin
	c.binIndex = idx
}

// largebinUnlink removes addr from both rings of bucket idx.
func (b *bins) largebinUnlink(store *chunkStore, idx int, addr Address) {
	b.largeAddr[idx] = ringUnlink(store, addrRing, b.largeAddr[idx], addr)
	b.largeSize[idx] = ringUnlink(store, sizeRing, b.largeSize[idx], addr)
}

// largebinSearch implements the best-fit walk: start at largebinIndex(need),
// walk buckets upward; within the starting bucket scan the size ring for
// the first element >= need, in any higher bucket the smallest element
// (the size-ring head) already qualifies, since every element of a higher
// bucket is larger than every element of a lower one.
func (b *bins) largebinSearch(store *chunkStore, need uint64) (Address, bool) {
	startIdx := largebinIndex(need)
	for idx := startIdx; idx < largebinCount; idx++ {
		head := b.largeSize[idx]
		if head == noAddress {
			continue
		}
		if idx > startIdx {
			c := mustGet(store, head)
			b.largebinUnlink(store, idx, head)
			c.container = containerNone
			return head, true
		}
		cur := head
		for {
			c := mustGet(store, cur)
			if c.Size >= need {
				b.largebinUnlink(store, idx, cur)
				c.container = containerNone
				return cur, true
			}
			cur = c.FdNextsize
			if cur == head {
				break
			}
		}
	}
	return noAddress, false
}

// --- tcache: per-size LIFO, bounded capacity ---

func (b *bins) tcachePush(nb uint64, addr Address, c *Chunk) bool {
	if !tcacheEligible(nb) {
		return false
	}
	slot := b.tcache[nb]
	if len(slot) >= tcacheCapacity {
		return false
	}
	b.tcache[nb] = append(slot, addr)
	c.container = containerTcache
	return true
}

func (b *bins) tcachePop(nb uint64) (Address, bool) {
	slot := b.tcache[nb]
	if len(slot) == 0 {
		return noAddress, false
	}
	addr := slot[len(slot)-1]
	b.tcache[nb] = slot[:len(slot)-1]
	return addr, true
}

func mustGet(store *chunkStore, addr Address) *Chunk {
	c, ok := store.get(addr)
	if !ok {
		panic("heapsim: dangling bin-list link to unknown chunk " + addrHex(addr))
	}
	return c
}
