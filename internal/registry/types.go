// Package registry implements the per-worker backend registry and the
// process-wide pool directory that every worker's selector reads from.
//
// A worker is the exclusive writer of its own PoolSlice; every other worker
// only reads it. The only synchronization primitives are atomic cells on the
// client-count rows and on the worker's backend counter — see Chunk and
// PoolSlice for the publish/acquire discipline that makes this safe without
// a mutex.
package registry

// Client-count sentinels. Real counts reported by STATUS messages are
// always >= 0; these negative magnitudes encode lifecycle states instead.
// Values match the original C++ implementation's SERVER_* constants.
const (
	NotReady     int64 = -1
	Disconnected int64 = -2
	NeverUsed    int64 = -3
)

// DefaultChunkCapacity is the number of rows allocated per chunk (C in
// spec.md) when the caller does not configure one explicitly.
const DefaultChunkCapacity = 20

// AddressRow is one (address, port) row in a pool slice chunk. Written once
// by the owning worker when the first PORT message for a backend arrives;
// never mutated afterward.
type AddressRow struct {
	IP   [4]byte
	Port uint16
}

// SlotCoord identifies a row within a worker's pool slice. The zero value is
// the real coordinate (0,0), so it cannot mean "no slot"; Unassigned() is
// used instead so a freshly accepted backend (no PORT seen yet) is
// distinguishable from slot (0,0).
type SlotCoord struct {
	Chunk int
	Slot  int
}

// Unassigned returns the slot coordinate for a backend that has not yet had
// its PORT message processed.
func Unassigned() SlotCoord { return SlotCoord{Chunk: -1, Slot: -1} }

// IsAssigned reports whether c identifies a real row.
func (c SlotCoord) IsAssigned() bool { return c.Chunk >= 0 && c.Slot >= 0 }

// Backend is one backend connection accepted by a worker's backend
// listener. Handle is the OS file descriptor of the backend's TCP
// connection, used only for diagnostics — the reactor holds the
// authoritative per-connection state keyed by fd and embeds a pointer to
// this struct directly, so the registry itself never needs a second
// fd-keyed map (see internal/reactor).
type Backend struct {
	Handle      int
	IP          [4]byte
	Port        uint16
	WorkerIndex int
	Slot        SlotCoord
	ConnID      string // correlation id for log lines spanning this connection's lifetime
}

// Selectable reports whether b has ever been assigned a slot. It does not
// read the count cell (that is the selector's job), so it also reports true
// for a row that is still NOT_READY or already DISCONNECTED; only Select
// decides whether the row can actually be picked.
func (b *Backend) Selectable() bool { return b.Slot.IsAssigned() }
