package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/arenshaw/reactorlb/internal/wire"
)

// newUDPRecvBuffer is the constructor handed to the worker's byte-buffer
// pool: one scratch buffer per readable event, reused across every datagram
// of that event's UDPBurst loop instead of allocated fresh each time.
func newUDPRecvBuffer() []byte {
	return make([]byte, maxUDPRequestSize)
}

// udpPacket is one pending outbound datagram: its destination and its
// already-serialized payload.
type udpPacket struct {
	addr    unix.Sockaddr
	payload []byte
}

// udpSendQueue is the per-worker ordered queue from §3/§4.4: datagrams
// that could not be sent immediately wait here in FIFO order.
type udpSendQueue struct {
	items []udpPacket
}

func (q *udpSendQueue) push(addr unix.Sockaddr, payload []byte) {
	q.items = append(q.items, udpPacket{addr: addr, payload: payload})
}

func (q *udpSendQueue) front() (udpPacket, bool) {
	if len(q.items) == 0 {
		return udpPacket{}, false
	}
	return q.items[0], true
}

func (q *udpSendQueue) pop() {
	q.items = q.items[1:]
}

const maxUDPRequestSize = 1500

// handleUDPReadable implements §4.4: drain up to UDPBurst datagrams,
// building and attempting to send a reply for each.
func (w *Worker) handleUDPReadable() {
	buf := w.udpRecvBufs.Get()
	defer w.udpRecvBufs.Put(buf)

	for i := 0; i < w.settings.UDPBurst; i++ {
		n, from, err := unix.Recvfrom(w.clientUDPFd, buf, 0)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			return
		}
		if n != wire.ClientRequestSize {
			continue // malformed datagram, not a protocol frame: drop it
		}
		reqType, perr := wire.ParseRequestType(buf[:n])
		if perr != nil {
			continue
		}
		reply := w.buildClientReply(reqType)
		w.sendUDPReply(from, reply.Marshal())
	}
}

// sendUDPReply attempts a single send-to; on backpressure (would-block, a
// zero-byte result, or a short write) it enqueues the datagram and arms
// writable notification on the UDP socket, per §4.4.
func (w *Worker) sendUDPReply(dest unix.Sockaddr, payload []byte) {
	n, err := unix.Sendto(w.clientUDPFd, payload, 0, dest)
	if err == nil && n == len(payload) {
		return
	}
	if err != nil && err != unix.EAGAIN && err != unix.EWOULDBLOCK {
		return // undeliverable destination; best-effort, nothing to retry
	}
	w.udpSend.push(dest, payload)
	w.armUDPWrite()
}

// drainUDPSendQueue implements the writable-side FIFO drain from §4.4:
// keep sending the head of the queue as long as each send reports the
// full datagram length; a zero-byte or partial result stops the drain
// without disturbing the head, to be retried on the next writable event.
func (w *Worker) drainUDPSendQueue() {
	for {
		pkt, ok := w.udpSend.front()
		if !ok {
			w.disarmUDPWrite()
			return
		}
		n, err := unix.Sendto(w.clientUDPFd, pkt.payload, 0, pkt.addr)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			// Undeliverable destination: drop this one and keep draining.
			w.udpSend.pop()
			continue
		}
		if n == len(pkt.payload) {
			w.udpSend.pop()
			continue
		}
		return
	}
}

func (w *Worker) armUDPWrite() {
	if w.udpWriteArmed {
		return
	}
	if err := w.poller.EnableWrite(w.clientUDPFd); err == nil {
		w.udpWriteArmed = true
	}
}

func (w *Worker) disarmUDPWrite() {
	if !w.udpWriteArmed {
		return
	}
	if err := w.poller.DisableWrite(w.clientUDPFd); err == nil {
		w.udpWriteArmed = false
	}
}
