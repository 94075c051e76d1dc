package heapsim

import "fmt"

// DefaultInitialHeapSize is used when NewArena is given a non-positive size:
// a sane 64 KiB default chunk/heap size.
const DefaultInitialHeapSize = 1 << 16

// baseAddress is where the very first (and, until sysmalloc, only) chunk is
// placed. The exact value is otherwise arbitrary; chosen so 0 stays safely
// reserved as the noAddress sentinel.
const baseAddress Address = 0x1000

// Arena is the allocator simulator: the composition of the chunk store, the
// bin containers, and the event log, mutated only through
// Allocate/Release/Consolidate. Arena is not goroutine-safe — see SafeArena
// for a mutex-guarded wrapper — and every method call is expected to run to
// completion atomically before another begins.
type Arena struct {
	store *chunkStore
	bins  *bins
	log   *eventLog
	top   Address
}

// NewArena constructs an arena with one top chunk covering exactly
// initialHeapBytes (rounded up to the 16-byte alignment), or
// DefaultInitialHeapSize if initialHeapBytes <= 0.
func NewArena(initialHeapBytes int) *Arena {
	size := uint64(DefaultInitialHeapSize)
	if initialHeapBytes > 0 {
		size = alignUp(uint64(initialHeapBytes), alignment)
	}

	a := &Arena{
		store: newChunkStore(baseAddress),
		bins:  newBins(),
		log:   &eventLog{},
	}
	top := &Chunk{
		Addr:      baseAddress,
		Size:      size,
		PrevInUse: true,
		container: containerTop,
	}
	a.store.put(top)
	a.top = baseAddress
	return a
}

// Allocate services a byte request from the tier hierarchy, returning the
// user pointer.
func (a *Arena) Allocate(bytes int) Address {
	req := uint64(0)
	if bytes > 0 {
		req = uint64(bytes)
	}
	return a.allocate(req)
}

// Release returns a previously allocated pointer to the arena. A
// null/zero/invalid/double-free pointer is a non-fatal, logged error — it
// never panics and never mutates state.
func (a *Arena) Release(ptr Address) {
	a.release(ptr)
}

// Consolidate forces mallocConsolidate, draining every fastbin into
// unsorted/top regardless of top size.
func (a *Arena) Consolidate() {
	a.mallocConsolidate()
}

// Snapshot returns a deep, read-only view of the arena.
func (a *Arena) Snapshot() Snapshot {
	return a.snapshot()
}

// Events returns a copy of the append-only event trace recorded so far.
func (a *Arena) Events() []Event {
	return a.log.snapshotEvents()
}

// ChunkInfo is the read-only projection ChunkByUserPointer hands to a
// caller: the chunk's own address plus the ChunkView fields.
type ChunkInfo struct {
	Addr Address
	ChunkView
}

// ChunkByUserPointer looks up the chunk owning user pointer p, for viewers
// that already have a pointer and want its header fields.
func (a *Arena) ChunkByUserPointer(p Address) (ChunkInfo, bool) {
	addr := chunkAddrFromUserPointer(p)
	c, ok := a.store.get(addr)
	if !ok {
		return ChunkInfo{}, false
	}
	return ChunkInfo{
		Addr: addr,
		ChunkView: ChunkView{
			Size:       c.Size,
			PrevSize:   c.PrevSize,
			InUse:      c.InUse,
			PrevInUse:  c.PrevInUse,
			Fd:         c.Fd,
			Bk:         c.Bk,
			FdNextsize: c.FdNextsize,
			BkNextsize: c.BkNextsize,
		},
	}, true
}

// emit appends an event to the log. Event emission is best-effort-never-
// fails: this never returns an error and never panics.
func (a *Arena) emit(e Event) {
	a.log.append(e)
}

// invariantViolation marks an engine bug — a size-classifier or bin-
// discipline condition that should be structurally impossible — as fatal
// to the current operation. This is distinct from recoverable user errors
// (emitted as error events): a chunk-table inconsistency, unlike a double
// free, means the allocator itself has a bug, so it panics rather than
// returning an error.
func invariantViolation(format string, args ...any) {
	panic("heapsim: invariant violation: " + fmt.Sprintf(format, args...))
}
