package reactor

import "github.com/arenshaw/reactorlb/internal/registry"

type connRole int

const (
	roleClient connRole = iota
	roleBackend
)

// recvPhase distinguishes the two parts of a backend frame. Client
// connections only ever read a fixed-size request and never use phaseBody.
type recvPhase int

const (
	phaseHeader recvPhase = iota
	phaseBody
)

// recvState is the per-connection in-flight receive buffer described in
// spec §3: a destination buffer, the frame's total length, how much of it
// has been filled so far, and — for backend connections — which phase of
// the two-phase header/body read is in progress and which body type it
// resolved to.
type recvState struct {
	buf      []byte
	filled   int
	phase    recvPhase
	bodyType uint16
}

func (r *recvState) reset(size int) {
	if cap(r.buf) < size {
		r.buf = make([]byte, size)
	} else {
		r.buf = r.buf[:size]
	}
	r.filled = 0
}

func (r *recvState) remaining() []byte { return r.buf[r.filled:] }
func (r *recvState) complete() bool    { return r.filled == len(r.buf) }

// sendState is the per-connection in-flight send buffer: at most one
// outstanding write, tracked as owned bytes plus how much of them made it
// onto the wire already.
type sendState struct {
	buf  []byte
	sent int
}

func (s *sendState) pending() bool    { return s.sent < len(s.buf) }
func (s *sendState) remaining() []byte { return s.buf[s.sent:] }

// Conn is the reactor's per-connection entry, attached directly to the
// handle instead of being looked up from a side table on every event —
// the handle map in worker.go exists only to find this struct and to tell
// backend connections apart from client ones.
type Conn struct {
	fd   int
	role connRole

	// connID correlates every log line touching this connection, from
	// accept through its frames to its eventual close, per §4.10's
	// per-connection correlation ID requirement.
	connID string

	recv recvState
	send sendState

	writeArmed bool

	// backend is non-nil only for role == roleBackend.
	backend *registry.Backend
}
