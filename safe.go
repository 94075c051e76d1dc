package heapsim

import "sync"

// SafeArena is a mutex-guarded wrapper around Arena, for callers that drive
// the simulator from more than one goroutine (e.g. a test harness replaying
// several scenarios concurrently). It adds no allocator semantics: every
// method still runs one whole Arena operation to completion while holding
// the lock — this only serializes *callers*, not anything internal to an
// operation.
type SafeArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewSafeArena constructs a thread-safe arena; see NewArena for the
// initialHeapBytes rule.
func NewSafeArena(initialHeapBytes int) *SafeArena {
	return &SafeArena{a: NewArena(initialHeapBytes)}
}

// Allocate thread-safely runs the allocation engine.
func (s *SafeArena) Allocate(bytes int) Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Allocate(bytes)
}

// Release thread-safely runs the release engine.
func (s *SafeArena) Release(ptr Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Release(ptr)
}

// Consolidate thread-safely forces mallocConsolidate.
func (s *SafeArena) Consolidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Consolidate()
}

// Snapshot thread-safely returns a deep, read-only view of the arena.
// Because the returned Snapshot shares no mutable storage with the arena
// (snapshot.go), it remains safe to read after the lock is released.
func (s *SafeArena) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Snapshot()
}

// Events thread-safely returns a copy of the event trace so far.
func (s *SafeArena) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Events()
}

// ChunkByUserPointer thread-safely looks up the chunk owning p.
func (s *SafeArena) ChunkByUserPointer(p Address) (ChunkInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.ChunkByUserPointer(p)
}

// Metrics thread-safely computes a fresh ArenaMetrics.
func (s *SafeArena) Metrics() ArenaMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Metrics()
}
