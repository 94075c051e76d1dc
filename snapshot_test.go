package heapsim

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotIsIndependentOfLaterMutation(t *testing.T) {
	a := NewArena(DefaultInitialHeapSize)
	p := a.Allocate(64)
	before := a.Snapshot()

	a.Allocate(128)
	a.Release(p)

	after := a.Snapshot()
	if cmp.Equal(before, after) {
		t.Error("snapshots taken before and after mutation must differ")
	}
}

func TestSnapshotStableWhenNothingChanges(t *testing.T) {
	a := NewArena(DefaultInitialHeapSize)
	a.Allocate(64)

	s1 := a.Snapshot()
	s2 := a.Snapshot()
	if diff := cmp.Diff(s1, s2); diff != "" {
		t.Errorf("two snapshots with no mutation in between must be equal (-first +second):\n%s", diff)
	}
}

func TestSnapshotChunksAreNotAliasedWithArenaState(t *testing.T) {
	a := NewArena(DefaultInitialHeapSize)
	p := a.Allocate(64)
	addr := chunkAddrFromUserPointer(p)

	snap := a.Snapshot()
	view := snap.Chunks[addr]
	view.Size = 999999 // mutate the caller's copy

	snap2 := a.Snapshot()
	if snap2.Chunks[addr].Size == 999999 {
		t.Error("mutating a returned ChunkView must not affect the arena's internal chunk")
	}
}

func TestChunkByUserPointerMatchesSnapshot(t *testing.T) {
	a := NewArena(DefaultInitialHeapSize)
	p := a.Allocate(64)
	addr := chunkAddrFromUserPointer(p)

	info, ok := a.ChunkByUserPointer(p)
	if !ok {
		t.Fatal("chunk not found")
	}
	snap := a.Snapshot()
	want := snap.Chunks[addr]
	if diff := cmp.Diff(want, info.ChunkView); diff != "" {
		t.Errorf("ChunkByUserPointer disagrees with Snapshot (-want +got):\n%s", diff)
	}
}

func TestChunkByUserPointerUnknownAddress(t *testing.T) {
	a := NewArena(DefaultInitialHeapSize)
	_, ok := a.ChunkByUserPointer(Address(0xdeadbeef))
	if ok {
		t.Error("expected ok=false for an address with no backing chunk")
	}
}
