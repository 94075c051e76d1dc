package heapsim

import "testing"

func TestMetricsTracksInUseAndFreeChunks(t *testing.T) {
	a := NewArena(DefaultInitialHeapSize)
	p1 := a.Allocate(64)
	a.Allocate(64)
	a.Release(p1)

	m := a.Metrics()
	if m.InUseChunks != 1 {
		t.Errorf("InUseChunks = %d, want 1", m.InUseChunks)
	}
	if m.BytesInUse != request2size(64) {
		t.Errorf("BytesInUse = %d, want %d", m.BytesInUse, request2size(64))
	}
	if m.TcacheCount != 1 {
		t.Errorf("TcacheCount = %d, want 1", m.TcacheCount)
	}
}

func TestMetricsUtilizationAndHeapBytes(t *testing.T) {
	a := NewArena(1024)
	m := a.Metrics()
	if m.HeapBytes != 1024 {
		t.Errorf("HeapBytes = %d, want 1024", m.HeapBytes)
	}
	if m.Utilization != 0 {
		t.Errorf("Utilization = %f, want 0 on a fresh arena", m.Utilization)
	}

	a.Allocate(256)
	m = a.Metrics()
	if m.Utilization <= 0 || m.Utilization >= 1 {
		t.Errorf("Utilization = %f, want strictly between 0 and 1", m.Utilization)
	}
}

func TestMetricsFastbinCount(t *testing.T) {
	a := NewArena(DefaultInitialHeapSize)
	overflowOneChunkIntoFastbin(a)

	m := a.Metrics()
	if m.FastbinCount != 1 {
		t.Errorf("FastbinCount = %d, want 1", m.FastbinCount)
	}
	if m.TcacheCount != tcacheCapacity {
		t.Errorf("TcacheCount = %d, want %d", m.TcacheCount, tcacheCapacity)
	}
}
