package registry

// Registry is a worker's handle onto its own pool slice. It owns the write
// path for backend lifecycle transitions; the reactor calls it whenever a
// backend connection is accepted, sends PORT or STATUS, or disconnects.
//
// The registry deliberately does not keep an fd-to-Backend map of its own —
// the reactor already attaches a *Backend directly to the per-connection
// state it holds for the lifetime of the socket (see internal/reactor), so
// a second lookup table here would just be a redundant hot-path indirection
// the original design explicitly avoids.
type Registry struct {
	workerIndex int
	slice       *PoolSlice
}

// New returns the registry for worker workerIndex, backed by its slice in
// dir.
func New(workerIndex int, dir *Directory) *Registry {
	return &Registry{workerIndex: workerIndex, slice: dir.Slice(workerIndex)}
}

// NewBackend creates the bookkeeping entry for a freshly accepted backend
// connection. The entry has no slot yet — it gets one only once
// RegisterPort runs, and the selector can pick it only after a STATUS
// message follows.
func (r *Registry) NewBackend(handle int, ip [4]byte, connID string) *Backend {
	return &Backend{
		Handle:      handle,
		IP:          ip,
		WorkerIndex: r.workerIndex,
		Slot:        Unassigned(),
		ConnID:      connID,
	}
}

// RegisterPort processes a backend's first PORT message: it allocates the
// backend's permanent slot coordinates and records the reported port. A
// backend that sends PORT twice keeps its original slot; the second PORT is
// ignored, mirroring the source's "first control-plane message wins"
// allocation rule.
func (r *Registry) RegisterPort(b *Backend, port uint16) {
	if b.Slot.IsAssigned() {
		return
	}
	b.Port = port
	b.Slot = r.slice.allocate(b.IP, port)
}

// UpdateStatus applies a STATUS message's client count to b's row. A count
// reported before PORT (which the protocol never sends, but a misbehaving
// backend might) is dropped rather than panicking on an unassigned slot.
func (r *Registry) UpdateStatus(b *Backend, count int64) {
	if !b.Slot.IsAssigned() {
		return
	}
	r.slice.updateCount(b.Slot, count)
}

// Remove tombstones b's row on disconnect. A backend that disconnected
// before ever sending PORT has no row to tombstone.
func (r *Registry) Remove(b *Backend) {
	if !b.Slot.IsAssigned() {
		return
	}
	r.slice.tombstone(b.Slot)
}
