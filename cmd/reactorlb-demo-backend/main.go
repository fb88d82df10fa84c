// Command reactorlb-demo-backend is a minimal backend that registers
// itself with a running reactorlb instance and periodically reports how
// many clients it has. It also runs its own tiny client-accepting
// listener so the reported count can change as real connections arrive.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/arenshaw/reactorlb/internal/wire"
)

func main() {
	var (
		listenPort = flag.Int("listen-port", 47000, "Port this backend listens on for its own clients")
		lbHost     = flag.String("lb-host", "127.0.0.1", "reactorlb host")
		lbPort     = flag.Int("lb-backend-port", 43000, "reactorlb backend-facing port")
		interval   = flag.Duration("status-interval", time.Second, "How often to send a STATUS update")
	)
	flag.Parse()

	var clientCount int64

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", *listenPort))
	if err != nil {
		log.Fatalf("listen on %d: %v", *listenPort, err)
	}
	go acceptClientsForever(ln, &clientCount)

	lbAddr := net.JoinHostPort(*lbHost, fmt.Sprintf("%d", *lbPort))
	conn, err := net.Dial("tcp", lbAddr)
	if err != nil {
		log.Fatalf("connect to reactorlb at %s: %v", lbAddr, err)
	}
	defer conn.Close()

	if err := sendPort(conn, uint16(*listenPort)); err != nil {
		log.Fatalf("send PORT: %v", err)
	}
	log.Printf("registered with reactorlb at %s, listening on :%d", lbAddr, *listenPort)

	for {
		count := atomic.LoadInt64(&clientCount)
		if err := sendStatus(conn, count); err != nil {
			log.Printf("send STATUS failed: %v", err)
		}
		time.Sleep(*interval)
	}
}

// acceptClientsForever keeps this demo backend's own listener populated so
// clientCount moves over time; connections are never read from or closed
// by the client's own choosing, matching the original demo program's
// deliberately leaky test harness.
func acceptClientsForever(ln net.Listener, clientCount *int64) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("accept: %v", err)
			continue
		}
		atomic.AddInt64(clientCount, 1)
		_ = conn
	}
}

func sendPort(conn net.Conn, port uint16) error {
	buf := wire.MarshalPortBody(port)
	header := wire.MarshalHeader(wire.PortMessageType)
	_, err := conn.Write(append(header, buf...))
	return err
}

func sendStatus(conn net.Conn, count int64) error {
	buf := wire.MarshalStatusBody(count)
	header := wire.MarshalHeader(wire.StatusMessageType)
	_, err := conn.Write(append(header, buf...))
	return err
}
