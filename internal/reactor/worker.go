package reactor

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/arenshaw/reactorlb/internal/helpers"
	"github.com/arenshaw/reactorlb/internal/pool"
	"github.com/arenshaw/reactorlb/internal/registry"
	"github.com/arenshaw/reactorlb/internal/wire"
)

// Settings configures one worker's listeners and burst limits. Every
// worker in the process uses the same Settings; only Index and the shared
// Directory distinguish them.
type Settings struct {
	Index         int
	ClientPort    int
	BackendPort   int
	AcceptBurst   int // per §4.1, default 1
	UDPBurst      int // per §4.4, default 1
	MaxEventsWait int
}

// DefaultAcceptBurst and DefaultUDPBurst match the source's
// MAX_*_LOOPING_COUNT constants.
const (
	DefaultAcceptBurst   = 1
	DefaultUDPBurst      = 1
	DefaultMaxEventsWait = 256
)

// maxUDPBurst bounds how many datagrams handleUDPReadable will drain from
// a single readiness event.
const maxUDPBurst = 4096

// Worker owns one reactor: its own poller, its own three listening
// sockets, the set of connections it accepted, and its private slice of
// the shared pool Directory. Exactly one goroutine (locked to its own OS
// thread by the caller, mirroring the source's one-thread-per-worker
// model) ever calls Run.
type Worker struct {
	settings Settings
	logger   *slog.Logger

	poller Poller

	clientTCPFd    int
	clientUDPFd    int
	backendTCPFd   int

	conns map[int]*Conn

	registry *registry.Registry
	dir      *registry.Directory

	udpSend       udpSendQueue
	udpWriteArmed bool
	udpRecvBufs   *pool.Pool[[]byte]
}

// NewWorker creates and binds worker i's listeners but does not start its
// event loop; call Run to do that.
func NewWorker(settings Settings, dir *registry.Directory, logger *slog.Logger) (*Worker, error) {
	if settings.AcceptBurst <= 0 {
		settings.AcceptBurst = DefaultAcceptBurst
	}
	if settings.UDPBurst <= 0 {
		settings.UDPBurst = DefaultUDPBurst
	}
	if settings.MaxEventsWait <= 0 {
		settings.MaxEventsWait = DefaultMaxEventsWait
	}
	// Bound burst sizes so a misconfigured value (e.g. from an operator's
	// config file) can't make a single ready event starve the rest of the
	// worker's fds for an unbounded number of accept/recv iterations.
	settings.AcceptBurst = helpers.ClampInt(settings.AcceptBurst, 1, unix.SOMAXCONN)
	settings.UDPBurst = helpers.ClampInt(settings.UDPBurst, 1, maxUDPBurst)

	p, err := newPoller()
	if err != nil {
		return nil, fmt.Errorf("worker %d: %w", settings.Index, err)
	}

	clientTCP, err := ListenTCP(settings.ClientPort)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("worker %d: client tcp listener: %w", settings.Index, err)
	}
	clientUDP, err := ListenUDP(settings.ClientPort)
	if err != nil {
		p.Close()
		unix.Close(clientTCP)
		return nil, fmt.Errorf("worker %d: client udp socket: %w", settings.Index, err)
	}
	backendTCP, err := ListenTCP(settings.BackendPort)
	if err != nil {
		p.Close()
		unix.Close(clientTCP)
		unix.Close(clientUDP)
		return nil, fmt.Errorf("worker %d: backend tcp listener: %w", settings.Index, err)
	}

	w := &Worker{
		settings:     settings,
		logger:       logger,
		poller:       p,
		clientTCPFd:  clientTCP,
		clientUDPFd:  clientUDP,
		backendTCPFd: backendTCP,
		conns:        make(map[int]*Conn),
		registry:     registry.New(settings.Index, dir),
		dir:          dir,
		udpRecvBufs:  pool.New(newUDPRecvBuffer),
	}

	for _, fd := range []int{clientTCP, clientUDP, backendTCP} {
		if err := p.AddRead(fd); err != nil {
			w.closeListeners()
			p.Close()
			return nil, fmt.Errorf("worker %d: register listener: %w", settings.Index, err)
		}
	}

	return w, nil
}

func (w *Worker) closeListeners() {
	unix.Close(w.clientTCPFd)
	unix.Close(w.clientUDPFd)
	unix.Close(w.backendTCPFd)
}

// Run blocks, running the event loop until the poller wait itself fails, or
// until an accept/registration failure on a fresh connection turns up one of
// the fatal-worker cases from §7. The caller (the process bootstrap, out of
// scope for this package) decides what a worker's death means for the rest
// of the process.
func (w *Worker) Run() error {
	events := make([]Event, w.settings.MaxEventsWait)
	for {
		n, err := w.poller.Wait(events)
		if err != nil {
			return fmt.Errorf("worker %d: %w", w.settings.Index, err)
		}
		for i := 0; i < n; i++ {
			if err := w.handleEvent(events[i]); err != nil {
				w.logError("worker aborting", "worker", w.settings.Index, "err", err)
				return err
			}
		}
	}
}

// Close tears down the worker's listeners, connections, and poller. Used
// by tests and by graceful shutdown.
func (w *Worker) Close() {
	for fd, c := range w.conns {
		w.dropConn(fd, c)
	}
	w.closeListeners()
	w.poller.Close()
}

func (w *Worker) handleEvent(ev Event) error {
	switch ev.Fd {
	case w.clientUDPFd:
		if ev.Writable {
			w.drainUDPSendQueue()
		}
		if ev.Readable {
			w.handleUDPReadable()
		}
		return nil
	}

	if ev.Closed {
		if c, ok := w.conns[ev.Fd]; ok {
			w.dropConn(ev.Fd, c)
		}
		return nil
	}

	switch ev.Fd {
	case w.clientTCPFd:
		return w.acceptClients()
	case w.backendTCPFd:
		return w.acceptBackends()
	}

	c, ok := w.conns[ev.Fd]
	if !ok {
		return nil
	}

	if ev.Writable {
		w.drainConnSend(ev.Fd, c)
		return nil
	}
	if ev.Readable {
		if c.role == roleBackend {
			w.handleBackendReadable(ev.Fd, c)
		} else {
			w.handleClientReadable(ev.Fd, c)
		}
	}
	return nil
}

// acceptClients drains up to AcceptBurst pending client connections. Per
// §7, an accept failure under a soft errno (transient) leaves the worker
// running; any other accept error, or a registration failure on the fresh
// fd, is fatal to the worker and is returned for Run to propagate.
func (w *Worker) acceptClients() error {
	for i := 0; i < w.settings.AcceptBurst; i++ {
		fd, _, transient, err := acceptNonblocking(w.clientTCPFd)
		if transient {
			return nil
		}
		if err != nil {
			return fmt.Errorf("worker %d: client accept: %w", w.settings.Index, err)
		}
		connID := uuid.NewString()
		c := &Conn{fd: fd, role: roleClient, connID: connID}
		c.recv.reset(wire.ClientRequestSize)
		if err := w.poller.AddRead(fd); err != nil {
			unix.Close(fd)
			return fmt.Errorf("worker %d: register client fd %d: %w", w.settings.Index, fd, err)
		}
		w.conns[fd] = c
		w.logInfo("client accepted", "worker", w.settings.Index, "conn_id", connID, "fd", fd)
	}
	return nil
}

// acceptBackends is acceptClients' counterpart for the backend-facing
// listener; see its doc comment for the fatal-vs-transient split.
func (w *Worker) acceptBackends() error {
	for i := 0; i < w.settings.AcceptBurst; i++ {
		fd, ip, transient, err := acceptNonblocking(w.backendTCPFd)
		if transient {
			return nil
		}
		if err != nil {
			return fmt.Errorf("worker %d: backend accept: %w", w.settings.Index, err)
		}
		connID := uuid.NewString()
		c := &Conn{fd: fd, role: roleBackend, connID: connID}
		c.recv.reset(wire.HeaderSize)
		c.backend = w.registry.NewBackend(fd, ip, connID)
		if err := w.poller.AddRead(fd); err != nil {
			unix.Close(fd)
			return fmt.Errorf("worker %d: register backend fd %d: %w", w.settings.Index, fd, err)
		}
		w.conns[fd] = c
		w.logInfo("backend accepted", "worker", w.settings.Index, "conn_id", connID, "fd", fd)
	}
	return nil
}

// dropConn applies the disconnect handler from §4.8: tombstone the backend
// slot if any, deregister from the poller, close the fd, and drop the
// connection entry.
func (w *Worker) dropConn(fd int, c *Conn) {
	if c.role == roleBackend && c.backend != nil {
		w.registry.Remove(c.backend)
	}
	w.poller.Remove(fd)
	unix.Close(fd)
	delete(w.conns, fd)
	w.logInfo("connection closed", "worker", w.settings.Index, "conn_id", c.connID, "fd", fd)
}

// armWrite enables writable notification for fd exactly once; repeat
// calls while already armed are no-ops to avoid redundant syscalls.
func (w *Worker) armWrite(fd int, c *Conn) {
	if c.writeArmed {
		return
	}
	if err := w.poller.EnableWrite(fd); err == nil {
		c.writeArmed = true
	}
}

func (w *Worker) disarmWrite(fd int, c *Conn) {
	if !c.writeArmed {
		return
	}
	if err := w.poller.DisableWrite(fd); err == nil {
		c.writeArmed = false
	}
}
