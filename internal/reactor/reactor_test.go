package reactor

import (
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenshaw/reactorlb/internal/registry"
	"github.com/arenshaw/reactorlb/internal/wire"
)

// freePort asks the kernel for an unused TCP port and releases it
// immediately; every reactor listener sets SO_REUSEADDR/SO_REUSEPORT so the
// brief window before rebinding is not a practical flake risk in CI.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func startWorker(t *testing.T, dir *registry.Directory) (*Worker, int, int) {
	t.Helper()
	clientPort := freePort(t)
	backendPort := freePort(t)

	w, err := NewWorker(Settings{
		Index:       0,
		ClientPort:  clientPort,
		BackendPort: backendPort,
		AcceptBurst: DefaultAcceptBurst,
		UDPBurst:    DefaultUDPBurst,
	}, dir, nil)
	require.NoError(t, err)

	go w.Run()
	t.Cleanup(w.Close)

	// Give the event loop a moment to start waiting on the poller.
	time.Sleep(20 * time.Millisecond)

	return w, clientPort, backendPort
}

func dialBackend(t *testing.T, backendPort int, port uint16, status int64) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(backendPort)))
	require.NoError(t, err)

	_, err = conn.Write(append(wire.MarshalHeader(wire.PortMessageType), wire.MarshalPortBody(port)...))
	require.NoError(t, err)
	_, err = conn.Write(append(wire.MarshalHeader(wire.StatusMessageType), wire.MarshalStatusBody(status)...))
	require.NoError(t, err)

	// Let the worker observe and apply both messages before the caller
	// issues a client request against the same registry state.
	time.Sleep(20 * time.Millisecond)
	return conn
}

func requestTCP(t *testing.T, clientPort int, reqType uint16) wire.Reply {
	t.Helper()
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(clientPort)), time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(time.Second)))

	_, err = conn.Write(wire.MarshalRequest(reqType))
	require.NoError(t, err)

	buf := make([]byte, wire.ClientReplySize)
	_, err = readFullTest(conn, buf)
	require.NoError(t, err)

	reply, err := wire.ParseReply(buf)
	require.NoError(t, err)
	return reply
}

func requestUDP(t *testing.T, clientPort int, reqType uint16) wire.Reply {
	t.Helper()
	conn, err := net.DialTimeout("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(clientPort)), time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(time.Second)))

	_, err = conn.Write(wire.MarshalRequest(reqType))
	require.NoError(t, err)

	buf := make([]byte, wire.ClientReplySize)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, wire.ClientReplySize, n)

	reply, err := wire.ParseReply(buf)
	require.NoError(t, err)
	return reply
}

func readFullTest(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func TestHappyPathTCP(t *testing.T) {
	dir := registry.NewDirectory(1)
	_, clientPort, backendPort := startWorker(t, dir)

	backendConn := dialBackend(t, backendPort, 55555, 0)
	defer backendConn.Close()

	reply := requestTCP(t, clientPort, wire.ReqServerAddr)

	assert.Equal(t, wire.ReqServerAddr, reply.Type)
	assert.Equal(t, wire.StatusSuccess, reply.Status)
	assert.Equal(t, uint16(55555), reply.Port)
	assert.Equal(t, [4]byte{127, 0, 0, 1}, reply.IP)
}

func TestNoServerUDP(t *testing.T) {
	dir := registry.NewDirectory(1)
	_, clientPort, _ := startWorker(t, dir)

	reply := requestUDP(t, clientPort, wire.ReqServerAddr)

	assert.Equal(t, wire.StatusNoServer, reply.Status)
	assert.Equal(t, uint16(0), reply.Port)
}

func TestUnknownTypeTCP(t *testing.T) {
	dir := registry.NewDirectory(1)
	_, clientPort, _ := startWorker(t, dir)

	reply := requestTCP(t, clientPort, 0x4444)

	assert.Equal(t, uint16(0x4444), reply.Type)
	assert.Equal(t, wire.StatusUnknownType, reply.Status)
}

func TestNotReadyFiltering(t *testing.T) {
	dir := registry.NewDirectory(1)
	_, clientPort, backendPort := startWorker(t, dir)

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(backendPort)))
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write(append(wire.MarshalHeader(wire.PortMessageType), wire.MarshalPortBody(6000)...))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	reply := requestTCP(t, clientPort, wire.ReqServerAddr)
	assert.Equal(t, wire.StatusNoServer, reply.Status)
}

func TestLeastLoadedSelectionAcrossWorkers(t *testing.T) {
	dir := registry.NewDirectory(2)

	w1 := startWorkerAtIndex(t, dir, 0)
	w2 := startWorkerAtIndex(t, dir, 1)

	heavy := dialBackend(t, w1.backendPort, 9001, 17)
	defer heavy.Close()
	light := dialBackend(t, w2.backendPort, 9002, 3)
	defer light.Close()

	reply := requestTCP(t, w1.clientPort, wire.ReqServerAddr)

	assert.Equal(t, uint16(9002), reply.Port)
}

type workerHandle struct {
	clientPort  int
	backendPort int
}

func startWorkerAtIndex(t *testing.T, dir *registry.Directory, idx int) workerHandle {
	t.Helper()
	clientPort := freePort(t)
	backendPort := freePort(t)

	w, err := NewWorker(Settings{
		Index:       idx,
		ClientPort:  clientPort,
		BackendPort: backendPort,
		AcceptBurst: DefaultAcceptBurst,
		UDPBurst:    DefaultUDPBurst,
	}, dir, nil)
	require.NoError(t, err)
	go w.Run()
	t.Cleanup(w.Close)
	time.Sleep(20 * time.Millisecond)

	return workerHandle{clientPort: clientPort, backendPort: backendPort}
}

func TestDisconnectTombstone(t *testing.T) {
	dir := registry.NewDirectory(1)
	_, clientPort, backendPort := startWorker(t, dir)

	backendConn := dialBackend(t, backendPort, 7000, 0)

	reply := requestTCP(t, clientPort, wire.ReqServerAddr)
	assert.Equal(t, wire.StatusSuccess, reply.Status)
	assert.Equal(t, uint16(7000), reply.Port)

	require.NoError(t, backendConn.Close())
	time.Sleep(30 * time.Millisecond)

	reply = requestTCP(t, clientPort, wire.ReqServerAddr)
	assert.Equal(t, wire.StatusNoServer, reply.Status)

	newBackend := dialBackend(t, backendPort, 7001, 2)
	defer newBackend.Close()

	reply = requestTCP(t, clientPort, wire.ReqServerAddr)
	assert.Equal(t, wire.StatusSuccess, reply.Status)
	assert.Equal(t, uint16(7001), reply.Port)
}

// failingPoller wraps a real Poller but fails every AddRead, to deterministically
// trigger the registration-failure-on-fresh-accept case from spec.md §7
// without needing to exhaust a real fd/epoll-instance limit.
type failingPoller struct {
	Poller
}

func (failingPoller) AddRead(int) error { return errors.New("injected registration failure") }

// TestAcceptRegistrationFailureIsFatal covers the §4.1/§7 "registration
// failure on a fresh accept is fatal to the worker" case: a hard AddRead
// error must be returned by acceptClients (and, in turn, propagated out of
// Run) rather than logged-and-continued, and the nil-safe logger guard must
// not panic along the way.
func TestAcceptRegistrationFailureIsFatal(t *testing.T) {
	dir := registry.NewDirectory(1)
	clientPort := freePort(t)
	backendPort := freePort(t)

	w, err := NewWorker(Settings{
		Index:       0,
		ClientPort:  clientPort,
		BackendPort: backendPort,
		AcceptBurst: DefaultAcceptBurst,
		UDPBurst:    DefaultUDPBurst,
	}, dir, nil)
	require.NoError(t, err)
	t.Cleanup(w.Close)

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(clientPort)))
	require.NoError(t, err)
	defer conn.Close()
	time.Sleep(20 * time.Millisecond)

	w.poller = failingPoller{Poller: w.poller}

	err = w.acceptClients()
	require.Error(t, err)
	assert.Empty(t, w.conns)
}

// TestAcceptAssignsCorrelationID covers §4.10: every accepted connection
// (client or backend) gets a non-empty, unique connID, and a backend's
// registry entry shares the same ID as its reactor-side connection. Run is
// never started here — acceptClients/acceptBackends are driven directly so
// the test can inspect w.conns without racing the event loop goroutine.
func TestAcceptAssignsCorrelationID(t *testing.T) {
	dir := registry.NewDirectory(1)
	clientPort := freePort(t)
	backendPort := freePort(t)

	w, err := NewWorker(Settings{
		Index:       0,
		ClientPort:  clientPort,
		BackendPort: backendPort,
		AcceptBurst: DefaultAcceptBurst,
		UDPBurst:    DefaultUDPBurst,
	}, dir, nil)
	require.NoError(t, err)
	t.Cleanup(w.Close)

	clientConn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(clientPort)))
	require.NoError(t, err)
	defer clientConn.Close()
	backendConn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(backendPort)))
	require.NoError(t, err)
	defer backendConn.Close()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, w.acceptClients())
	require.NoError(t, w.acceptBackends())

	var clientID, backendID string
	for _, c := range w.conns {
		switch c.role {
		case roleClient:
			clientID = c.connID
		case roleBackend:
			backendID = c.connID
			require.NotNil(t, c.backend)
			assert.Equal(t, c.connID, c.backend.ConnID)
		}
	}

	assert.NotEmpty(t, clientID)
	assert.NotEmpty(t, backendID)
	assert.NotEqual(t, clientID, backendID)
}

// TestPartialStatusSplits drives the partial-read path end to end by
// writing one STATUS frame in three separately flushed chunks. The
// 1+7/7+1/4+4 body splits themselves are checked at the codec level in
// internal/wire's TestStatusBodySplitReadsAgree.
func TestPartialStatusSplits(t *testing.T) {
	dir := registry.NewDirectory(1)
	_, clientPort, backendPort := startWorker(t, dir)

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(backendPort)))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(append(wire.MarshalHeader(wire.PortMessageType), wire.MarshalPortBody(8000)...))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	full := append(wire.MarshalHeader(wire.StatusMessageType), wire.MarshalStatusBody(42)...)
	// full is header(2) + body(8) = 10 bytes, written as 1+7+2: the header
	// is split 1+1 across the first two writes and the body 6+2 across the
	// last two.
	_, err = conn.Write(full[:1])
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = conn.Write(full[1:8])
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = conn.Write(full[8:])
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	reply := requestTCP(t, clientPort, wire.ReqServerAddr)
	assert.Equal(t, wire.StatusSuccess, reply.Status)
	assert.Equal(t, uint16(8000), reply.Port)
}
