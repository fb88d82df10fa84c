// Package wire implements the on-the-wire protocol between clients, the
// balancer, and backends: fixed-size client request/reply frames and
// header+body backend frames.
//
// All client-facing integers are little-endian except the IP address, which
// is carried verbatim in the network-order form the backend reported it in.
// Backend-facing integers (port, client count) are little-endian.
package wire

// ReqServerAddr is the only request type a client may send, over either
// TCP or UDP. It shares its numeric value with PortMessageType by historical
// accident (see spec.md §9 Open Questions): the two travel on disjoint
// transports (client<->balancer vs. backend<->balancer) so there is no
// on-wire ambiguity, but they are distinct logical symbols.
const ReqServerAddr uint16 = 10000

// Client reply status codes.
const (
	StatusSuccess     uint16 = 0
	StatusNoServer    uint16 = 1
	StatusUnknownType uint16 = 2
)

// Backend message header types.
const (
	// PortMessageType carries the backend's client-facing listening port.
	PortMessageType uint16 = 10000
	// StatusMessageType carries the backend's current client count.
	StatusMessageType uint16 = 20000
)

// Fixed frame sizes.
const (
	// HeaderSize is the length of a backend message header (the type field).
	HeaderSize = 2
	// ClientRequestSize is the length of a client request frame.
	ClientRequestSize = 2
	// ClientReplySize is the length of a client reply frame.
	ClientReplySize = 10
	// PortBodySize is the length of a PORT message body.
	PortBodySize = 2
	// StatusBodySize is the length of a STATUS message body.
	StatusBodySize = 8
)

// BodyLength returns the expected body length for a backend header type, and
// false if the type is not recognized.
func BodyLength(headerType uint16) (int, bool) {
	switch headerType {
	case PortMessageType:
		return PortBodySize, true
	case StatusMessageType:
		return StatusBodySize, true
	default:
		return 0, false
	}
}
