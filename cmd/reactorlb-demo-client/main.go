// Command reactorlb-demo-client sends a single server-address request to
// a running reactorlb instance over TCP or UDP and prints the decoded
// reply.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/arenshaw/reactorlb/internal/wire"
)

func main() {
	var (
		host     = flag.String("host", "127.0.0.1", "reactorlb host")
		port     = flag.Int("port", 53000, "reactorlb client-facing port")
		proto    = flag.String("proto", "tcp", "tcp or udp")
		deadline = flag.Duration("timeout", 2*time.Second, "round-trip timeout")
	)
	flag.Parse()

	addr := net.JoinHostPort(*host, fmt.Sprintf("%d", *port))
	reply, err := request(*proto, addr, *deadline)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}

	switch reply.Status {
	case wire.StatusSuccess:
		ip := net.IP(reply.IP[:])
		fmt.Printf("assigned backend %s:%d\n", ip, reply.Port)
	case wire.StatusNoServer:
		fmt.Println("no backend currently available")
	case wire.StatusUnknownType:
		fmt.Println("balancer reported unknown request type")
	default:
		fmt.Printf("unrecognized status %d\n", reply.Status)
	}
}

func request(proto, addr string, deadline time.Duration) (wire.Reply, error) {
	conn, err := net.DialTimeout(proto, addr, deadline)
	if err != nil {
		return wire.Reply{}, fmt.Errorf("dial %s %s: %w", proto, addr, err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(deadline))

	if _, err := conn.Write(wire.MarshalRequest(wire.ReqServerAddr)); err != nil {
		return wire.Reply{}, fmt.Errorf("send request: %w", err)
	}

	buf := make([]byte, wire.ClientReplySize)
	if _, err := readFull(conn, buf); err != nil {
		return wire.Reply{}, fmt.Errorf("read reply: %w", err)
	}

	return wire.ParseReply(buf)
}

// readFull reads until buf is full, which works for both stream (TCP) and
// datagram (UDP) sockets since the balancer always writes exactly one
// ClientReplySize frame per request.
func readFull(conn net.Conn, buf []byte) (int, error) {
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
