package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const listenBacklog = 1024

// ListenTCP opens a non-blocking, address-and-port-reusing TCP listening
// socket bound to 0.0.0.0:port. Every worker opens its own listener on the
// same port; SO_REUSEPORT lets the kernel load-balance accepts across them
// instead of the workers fighting over a single shared listener.
func ListenTCP(port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	if err := setReuse(fd); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("set nonblock: %w", err)
	}
	return fd, nil
}

// ListenUDP opens a non-blocking, address-and-port-reusing UDP socket bound
// to 0.0.0.0:port.
func ListenUDP(port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	if err := setReuse(fd); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("set nonblock: %w", err)
	}
	return fd, nil
}

func setReuse(fd int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("SO_REUSEADDR: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		return fmt.Errorf("SO_REUSEPORT: %w", err)
	}
	return nil
}

// acceptNonblocking accepts one connection from listenFd, already
// non-blocking, and returns its fd and peer IPv4 address. A would-block
// result is reported via transient so callers can distinguish it from a
// fatal accept error.
func acceptNonblocking(listenFd int) (fd int, ip [4]byte, transient bool, err error) {
	nfd, sa, aerr := unix.Accept4(listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if aerr != nil {
		if aerr == unix.EAGAIN || aerr == unix.EWOULDBLOCK {
			return -1, ip, true, nil
		}
		return -1, ip, false, aerr
	}
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		ip = in4.Addr
	}
	return nfd, ip, false, nil
}
