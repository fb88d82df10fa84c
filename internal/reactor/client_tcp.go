package reactor

import (
	"github.com/arenshaw/reactorlb/internal/registry"
	"github.com/arenshaw/reactorlb/internal/wire"
)

// handleClientReadable implements §4.2: read into the in-flight request
// buffer from its current offset; once the 2-byte request is complete,
// build and emit the reply, then reset the buffer for the connection's
// next request.
func (w *Worker) handleClientReadable(fd int, c *Conn) {
	for {
		n, outcome := readSocket(fd, c.recv.remaining())
		switch outcome {
		case outcomeTransient:
			return
		case outcomeFatalConn:
			w.logWarn("client read failed", "worker", w.settings.Index, "conn_id", c.connID, "fd", fd)
			w.dropConn(fd, c)
			return
		}
		c.recv.filled += n
		if !c.recv.complete() {
			continue
		}

		reqType, perr := wire.ParseRequestType(c.recv.buf)
		if perr != nil {
			// Unreachable in practice — recv.buf is always exactly
			// ClientRequestSize here — but fail closed rather than panic.
			w.logWarn("client sent malformed request", "worker", w.settings.Index, "conn_id", c.connID, "fd", fd, "err", perr)
			w.dropConn(fd, c)
			return
		}

		reply := w.buildClientReply(reqType)
		w.sendClientReply(fd, c, reply.Marshal())
		c.recv.reset(wire.ClientRequestSize)
		return
	}
}

// buildClientReply implements §4.7's client-facing cases: SUCCESS/NO_SERVER
// for a recognized request, UNKNOWN_TYPE echoing the raw type otherwise.
func (w *Worker) buildClientReply(reqType uint16) wire.Reply {
	if reqType != wire.ReqServerAddr {
		return wire.UnknownTypeReply(reqType)
	}

	sel, found := registry.Select(w.dir)
	if !found {
		return wire.NoServerReply(reqType)
	}
	return wire.SuccessReply(reqType, sel.Port, sel.IP)
}

// sendClientReply attempts a single write of the reply; on a partial write
// or would-block it hands the unsent tail to the connection's send buffer
// and arms writable notification, per §4.2.
func (w *Worker) sendClientReply(fd int, c *Conn, payload []byte) {
	n, outcome := writeSocket(fd, payload)
	if outcome == outcomeFatalConn {
		w.logWarn("client write failed", "worker", w.settings.Index, "conn_id", c.connID, "fd", fd)
		w.dropConn(fd, c)
		return
	}
	if n == len(payload) {
		return
	}
	c.send.buf = append(c.send.buf[:0], payload[n:]...)
	c.send.sent = 0
	w.armWrite(fd, c)
}

// drainConnSend is shared by client and backend TCP connections: it drains
// as much of the in-flight send buffer as the socket will currently
// accept, and disables writable notification once the buffer is empty.
func (w *Worker) drainConnSend(fd int, c *Conn) {
	for c.send.pending() {
		n, outcome := writeSocket(fd, c.send.remaining())
		switch outcome {
		case outcomeTransient:
			return
		case outcomeFatalConn:
			w.logWarn("connection write failed", "worker", w.settings.Index, "conn_id", c.connID, "fd", fd)
			w.dropConn(fd, c)
			return
		}
		if n == 0 {
			return
		}
		c.send.sent += n
	}
	c.send.buf = c.send.buf[:0]
	c.send.sent = 0
	w.disarmWrite(fd, c)
}
