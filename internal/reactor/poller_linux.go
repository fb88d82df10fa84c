//go:build linux

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// epollPoller is the Linux Poller, backed directly by epoll(7) rather than
// any higher-level net package facility — the reactor needs raw,
// non-blocking file descriptors it controls end to end, not the
// goroutine-per-connection model net.Listener/net.Conn are built around.
type epollPoller struct {
	epfd int
}

func newPoller() (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	return &epollPoller{epfd: fd}, nil
}

const readEvents = unix.EPOLLIN | unix.EPOLLRDHUP

func (p *epollPoller) AddRead(fd int) error {
	ev := unix.EpollEvent{Events: readEvents, Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) EnableWrite(fd int) error {
	ev := unix.EpollEvent{Events: readEvents | unix.EPOLLOUT, Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *epollPoller) DisableWrite(fd int) error {
	ev := unix.EpollEvent{Events: readEvents, Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *epollPoller) Remove(fd int) error {
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (p *epollPoller) Wait(events []Event) (int, error) {
	raw := make([]unix.EpollEvent, len(events))
	for {
		n, err := unix.EpollWait(p.epfd, raw, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("epoll_wait: %w", err)
		}
		for i := 0; i < n; i++ {
			e := raw[i]
			events[i] = Event{
				Fd:       int(e.Fd),
				Readable: e.Events&unix.EPOLLIN != 0,
				Writable: e.Events&unix.EPOLLOUT != 0,
				Closed:   e.Events&(unix.EPOLLERR|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0,
			}
		}
		return n, nil
	}
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
