package heapsim

// sizeclass.go is the size-classifier component: pure functions mapping a
// request or chunk size to the index of the tier that would hold it. None
// of these touch arena state.

const (
	minChunkSize = 16 // smallest possible chunk, request2size's floor

	fastbinCount  = 10
	smallbinCount = 64
	largebinCount = 32

	// fastbinStep/fastbinFirstSize define the exact sizes fastbins classify:
	// request2size(16) = 32, +16 per slot, for fastbinCount slots — each
	// slot is one exact size class, step 16.
	// See DESIGN.md's Open Question resolution for why this 10-slot table
	// is used instead of a narrower illustrative range.
	fastbinStep = 16

	// tcacheMaxRequest is TCACHE_MAX: the largest *request* (not chunk) size
	// eligible for the thread cache.
	tcacheMaxRequest = 64

	// tcacheCapacity is the max chunks held per tcache size bucket.
	tcacheCapacity = 7

	// smallbinMaxRequest bounds smallbin-eligible chunk sizes via
	// request2size.
	smallbinMaxRequest = 512

	// fastbinConsolidationThreshold is the top-chunk-size threshold below
	// which allocation opportunistically runs mallocConsolidate. Note this
	// inverts the usual glibc heuristic (there the threshold triggers a
	// full scan above a size, not below it); the inversion is preserved
	// deliberately.
	fastbinConsolidationThreshold = 8192

	// sysmallocGrowthFloor is the minimum amount sysmalloc grows the top
	// by, regardless of the requested size.
	sysmallocGrowthFloor = 65536
)

// request2size converts a user byte request into a chunk size: header
// overhead, rounded up to alignment, with a 16-byte floor.
func request2size(req uint64) uint64 {
	size := alignUp(req+headerOverhead, alignment)
	if size < minChunkSize {
		return minChunkSize
	}
	return size
}

var (
	fastbinFirstSize     = request2size(16)
	smallbinFirstSize    = uint64(minChunkSize)
	tcacheMaxChunkSize   = request2size(tcacheMaxRequest)
	smallbinMaxChunkSize = request2size(smallbinMaxRequest)
)

// fastbinIndex returns the fastbin slot for an exact chunk size, or -1 if
// chunkSize isn't a fastbin size.
func fastbinIndex(chunkSize uint64) int {
	if chunkSize < fastbinFirstSize {
		return -1
	}
	if (chunkSize-fastbinFirstSize)%fastbinStep != 0 {
		return -1
	}
	idx := int((chunkSize - fastbinFirstSize) / fastbinStep)
	if idx < 0 || idx >= fastbinCount {
		return -1
	}
	return idx
}

// smallbinIndex returns the smallbin slot for an exact chunk size, or -1 if
// chunkSize is too large for the smallbin tier.
func smallbinIndex(chunkSize uint64) int {
	if chunkSize > smallbinMaxChunkSize {
		return -1
	}
	if (chunkSize-smallbinFirstSize)%alignment != 0 {
		return -1
	}
	idx := int((chunkSize - smallbinFirstSize) / alignment)
	if idx < 0 || idx >= smallbinCount {
		return -1
	}
	return idx
}

// largebinIndex buckets a chunk size by floor(log2(size)), clamped to
// [0, largebinCount). This is coarser than glibc's piecewise scheme by
// design — callers must not assume glibc bin membership.
func largebinIndex(chunkSize uint64) int {
	if chunkSize == 0 {
		return 0
	}
	idx := 0
	for v := chunkSize; v > 1; v >>= 1 {
		idx++
	}
	if idx >= largebinCount {
		idx = largebinCount - 1
	}
	return idx
}

// tcacheEligible reports whether a chunk of size nb may live in the tcache.
func tcacheEligible(nb uint64) bool {
	return nb <= tcacheMaxChunkSize
}
