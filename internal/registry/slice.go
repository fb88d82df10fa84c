package registry

import "sync/atomic"

// PoolSlice is one worker's append-only view of its own backends: a growable
// sequence of chunks plus a monotonic counter of backends ever allocated.
// Exactly one goroutine — the owning worker — calls allocate/updateCount/
// tombstone; every other worker only scans. The counter is the single
// release/acquire gate: the owner writes a row's fields and then advances
// the counter; a reader loads the counter first and only then reads rows
// below it, so the Go memory model guarantees the row writes are visible.
type PoolSlice struct {
	chunks   chunkList
	counter  atomic.Int64
	capacity int
}

// capacityOrDefault returns p's configured chunk capacity, or
// DefaultChunkCapacity for a zero-value PoolSlice (e.g. one built without
// going through NewDirectoryWithCapacity).
func (p *PoolSlice) capacityOrDefault() int {
	if p.capacity > 0 {
		return p.capacity
	}
	return DefaultChunkCapacity
}

// allocate reserves the next row for a backend that just sent its first PORT
// message, writes its address into that row, and marks it NotReady until the
// first STATUS message arrives. Returns the row's stable coordinates.
func (p *PoolSlice) allocate(ip [4]byte, port uint16) SlotCoord {
	capacity := p.capacityOrDefault()
	n := p.counter.Load()
	chunkIdx := int(n / int64(capacity))
	slotIdx := int(n % int64(capacity))

	if slotIdx == 0 {
		p.chunks.append(newChunk(capacity))
	}

	chunks := p.chunks.snapshot()
	ch := chunks[chunkIdx]
	ch.Rows[slotIdx] = AddressRow{IP: ip, Port: port}
	ch.Counts[slotIdx].Store(NotReady)
	p.counter.Add(1)

	return SlotCoord{Chunk: chunkIdx, Slot: slotIdx}
}

// updateCount overwrites the client count at coord, e.g. on a STATUS
// message. count is stored verbatim; a negative value leaves the row
// unselectable. NotReady is set by allocate and Disconnected by tombstone.
func (p *PoolSlice) updateCount(coord SlotCoord, count int64) {
	chunks := p.chunks.snapshot()
	chunks[coord.Chunk].Counts[coord.Slot].Store(count)
}

// tombstone marks coord DISCONNECTED. The row is never reused — the slot
// coordinate is retired along with the backend it named.
func (p *PoolSlice) tombstone(coord SlotCoord) {
	chunks := p.chunks.snapshot()
	chunks[coord.Chunk].Counts[coord.Slot].Store(Disconnected)
}

// Len returns the number of rows ever allocated in this slice. Safe to call
// from any worker.
func (p *PoolSlice) Len() int64 { return p.counter.Load() }

// Scan walks every row allocated in this slice in coordinate order, calling
// fn with the row's coordinates, its currently observed client count, and
// its address. Safe to call concurrently with the owner's writes — fn may
// observe a count written after Scan started, but never a row that does not
// yet causally exist relative to the Len() it read.
func (p *PoolSlice) Scan(fn func(coord SlotCoord, count int64, row AddressRow)) {
	n := p.counter.Load()
	if n == 0 {
		return
	}
	chunks := p.chunks.snapshot()
	capacity := p.capacityOrDefault()

	var i int64
	for chunkIdx := 0; i < n; chunkIdx++ {
		ch := chunks[chunkIdx]
		for slotIdx := 0; slotIdx < capacity && i < n; slotIdx, i = slotIdx+1, i+1 {
			count := ch.Counts[slotIdx].Load()
			fn(SlotCoord{Chunk: chunkIdx, Slot: slotIdx}, count, ch.Rows[slotIdx])
		}
	}
}
