//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// kqueuePoller is the BSD/Darwin Poller, backed by kqueue(2). Read and
// write interest are tracked as separate filters, unlike epoll's single
// registration with an events mask, so EnableWrite/DisableWrite add and
// remove the EVFILT_WRITE filter rather than editing flags in place.
type kqueuePoller struct {
	kq int
}

func newPoller() (Poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue: %w", err)
	}
	return &kqueuePoller{kq: fd}, nil
}

func (p *kqueuePoller) control(fd int, filter int16, flags uint16) error {
	changes := []unix.Kevent_t{{
		Ident:  uint64(fd),
		Filter: filter,
		Flags:  flags,
	}}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func (p *kqueuePoller) AddRead(fd int) error {
	return p.control(fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_CLEAR)
}

func (p *kqueuePoller) EnableWrite(fd int) error {
	return p.control(fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_CLEAR)
}

func (p *kqueuePoller) DisableWrite(fd int) error {
	return p.control(fd, unix.EVFILT_WRITE, unix.EV_DELETE)
}

func (p *kqueuePoller) Remove(fd int) error {
	_ = p.control(fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	err := p.control(fd, unix.EVFILT_READ, unix.EV_DELETE)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (p *kqueuePoller) Wait(events []Event) (int, error) {
	raw := make([]unix.Kevent_t, len(events))
	for {
		n, err := unix.Kevent(p.kq, nil, raw, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("kevent: %w", err)
		}
		for i := 0; i < n; i++ {
			e := raw[i]
			ev := Event{Fd: int(e.Ident)}
			switch e.Filter {
			case unix.EVFILT_READ:
				ev.Readable = true
			case unix.EVFILT_WRITE:
				ev.Writable = true
			}
			if e.Flags&(unix.EV_EOF|unix.EV_ERROR) != 0 {
				ev.Closed = true
			}
			events[i] = ev
		}
		return n, nil
	}
}

func (p *kqueuePoller) Close() error {
	return unix.Close(p.kq)
}
