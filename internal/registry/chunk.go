package registry

import "sync/atomic"

// Chunk is one fixed-capacity block of a pool slice. Rows are written once,
// by the owning worker, before that worker's counter is advanced past them;
// Counts cells are updated repeatedly by STATUS messages and on disconnect.
// Capacity is fixed at construction to whatever the owning PoolSlice was
// configured with.
type Chunk struct {
	Counts []atomic.Int64
	Rows   []AddressRow
}

func newChunk(capacity int) *Chunk {
	ch := &Chunk{
		Counts: make([]atomic.Int64, capacity),
		Rows:   make([]AddressRow, capacity),
	}
	for i := range ch.Counts {
		ch.Counts[i].Store(NeverUsed)
	}
	return ch
}

// chunkList is an append-only sequence of chunks published via copy-on-write
// so a single writer (the owning worker) can grow it while any number of
// readers (other workers' selectors) hold a stable snapshot without a lock.
type chunkList struct {
	ptr atomic.Pointer[[]*Chunk]
}

func (l *chunkList) snapshot() []*Chunk {
	p := l.ptr.Load()
	if p == nil {
		return nil
	}
	return *p
}

// append adds ch to the sequence. Only the owning worker ever calls this, so
// there is no concurrent-writer case to arbitrate — the copy-and-store is
// just how the new slice header is published to readers.
func (l *chunkList) append(ch *Chunk) {
	cur := l.snapshot()
	next := make([]*Chunk, len(cur)+1)
	copy(next, cur)
	next[len(cur)] = ch
	l.ptr.Store(&next)
}
