// Package heapsim simulates a glibc-style (ptmalloc2 lineage) segregated-fit
// heap allocator over a single abstract arena.
//
// # Overview
//
// The simulator models chunk layout, bin membership, and the split/coalesce
// algorithms a real allocator uses, without ever touching real memory: every
// "address" is an abstract, monotonically increasing integer and every
// "chunk" is a header record in a lookup table. This makes the whole state
// machine trivial to snapshot and replay, which is the point — the package
// exists to drive an external step-through viewer, not to allocate anything.
//
// # Basic Usage
//
//	a := heapsim.NewArena(0) // default initial heap size
//
//	p1 := a.Allocate(24)
//	a.Release(p1)
//	p2 := a.Allocate(24) // same address, served from tcache
//
//	snap := a.Snapshot()   // deep, read-only view for a viewer
//	for _, ev := range a.Events() {
//		fmt.Println(ev.Msg)
//	}
//
// # Tier Hierarchy
//
// Each allocation searches, in order: per-size thread cache (tcache),
// fastbin, (opportunistic fastbin consolidation), smallbin, unsorted bin,
// largebin, and finally the top chunk ("wilderness"). Each release routes a
// freed chunk through the mirror-image of that hierarchy, coalescing with
// physically adjacent free neighbours along the way.
//
// # Thread Safety
//
// Arena is not goroutine-safe: every external call must run to completion
// before the next begins (see the package's concurrency model). For a
// caller that drives the arena from more than one goroutine, SafeArena wraps
// Arena with a mutex; it adds no allocator semantics of its own.
//
// # Important Notes
//
//   - No real payload bytes are modeled; chunks carry only header metadata.
//   - There is no persistence, wire format, or network surface: Arena is a
//     pure in-process state machine.
//   - New addresses are minted only by carving chunks from the top. A freed
//     chunk's address is handed out again when it is reused from the tcache
//     or a bin, or re-carved after being merged back into the top.
package heapsim
