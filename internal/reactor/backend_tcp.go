package reactor

import (
	"github.com/arenshaw/reactorlb/internal/wire"
)

// handleBackendReadable implements the two-phase receive from §4.3: header
// first, then a body whose length depends on the header's type. Partial
// reads in either phase resume at the saved offset; a body completion
// applies the message and returns to the header phase for the next frame.
func (w *Worker) handleBackendReadable(fd int, c *Conn) {
	for {
		n, outcome := readSocket(fd, c.recv.remaining())
		switch outcome {
		case outcomeTransient:
			return
		case outcomeFatalConn:
			w.logWarn("backend read failed", "worker", w.settings.Index, "conn_id", c.connID, "fd", fd)
			w.dropConn(fd, c)
			return
		}
		c.recv.filled += n
		if !c.recv.complete() {
			continue
		}

		switch c.recv.phase {
		case phaseHeader:
			headerType, herr := wire.ParseHeader(c.recv.buf)
			if herr != nil {
				w.logWarn("backend sent malformed header", "worker", w.settings.Index, "conn_id", c.connID, "fd", fd, "err", herr)
				w.dropConn(fd, c)
				return
			}
			bodyLen, ok := wire.BodyLength(headerType)
			if !ok {
				// Unknown type: close the offending backend connection.
				w.logWarn("backend sent unknown message type", "worker", w.settings.Index, "conn_id", c.connID, "fd", fd, "type", headerType)
				w.dropConn(fd, c)
				return
			}
			c.recv.bodyType = headerType
			c.recv.phase = phaseBody
			c.recv.reset(bodyLen)
			// Fall through to try reading the body immediately; if the
			// socket has no more data buffered, the next Read returns
			// EAGAIN and we wait for the next readiness event.

		case phaseBody:
			w.applyBackendBody(c)
			c.recv.phase = phaseHeader
			c.recv.reset(wire.HeaderSize)
		}
	}
}

// applyBackendBody implements §4.5's allocation and update rules: the
// first PORT message allocates the backend's slot; every STATUS message
// overwrites its client-count cell.
func (w *Worker) applyBackendBody(c *Conn) {
	switch c.recv.bodyType {
	case wire.PortMessageType:
		port, err := wire.ParsePortBody(c.recv.buf)
		if err != nil {
			return
		}
		w.registry.RegisterPort(c.backend, port)
	case wire.StatusMessageType:
		count, err := wire.ParseStatusBody(c.recv.buf)
		if err != nil {
			return
		}
		w.registry.UpdateStatus(c.backend, count)
	}
}
