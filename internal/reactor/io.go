package reactor

import "golang.org/x/sys/unix"

// readSocket wraps a single non-blocking read, mapping its result onto the
// discriminated Outcome from the design notes: transient on would-block,
// fatalConn on any other error or on a zero-byte read (peer closed), ok
// otherwise.
func readSocket(fd int, buf []byte) (int, Outcome) {
	n, err := unix.Read(fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, outcomeTransient
		}
		return 0, outcomeFatalConn
	}
	if n == 0 {
		return 0, outcomeFatalConn
	}
	return n, outcomeOK
}

// writeSocket wraps a single non-blocking write. A would-block or partial
// write is not fatal — the caller is responsible for queuing the unsent
// remainder, per §4.2/§4.4's send-buffer fallback.
func writeSocket(fd int, buf []byte) (int, Outcome) {
	n, err := unix.Write(fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, outcomeTransient
		}
		return 0, outcomeFatalConn
	}
	return n, outcomeOK
}
