package wire

import (
	"encoding/binary"
	"fmt"
)

// Reply is the fixed 10-byte balancer->client frame:
// type(2) | status(2) | port(2) | ip(4), all little-endian except ip, which
// is carried in the network-order form the backend reported it in.
type Reply struct {
	Type   uint16
	Status uint16
	Port   uint16
	IP     [4]byte
}

// Marshal serializes the reply to its fixed 10-byte wire form.
func (r Reply) Marshal() []byte {
	b := make([]byte, ClientReplySize)
	binary.LittleEndian.PutUint16(b[0:2], r.Type)
	binary.LittleEndian.PutUint16(b[2:4], r.Status)
	binary.LittleEndian.PutUint16(b[4:6], r.Port)
	copy(b[6:10], r.IP[:])
	return b
}

// ParseReply parses a 10-byte reply frame. Used by demo clients and tests;
// the balancer itself never receives replies.
func ParseReply(b []byte) (Reply, error) {
	if len(b) != ClientReplySize {
		return Reply{}, fmt.Errorf("reply frame: want %d bytes, got %d: %w", ClientReplySize, len(b), ErrWireError)
	}
	var r Reply
	r.Type = binary.LittleEndian.Uint16(b[0:2])
	r.Status = binary.LittleEndian.Uint16(b[2:4])
	r.Port = binary.LittleEndian.Uint16(b[4:6])
	copy(r.IP[:], b[6:10])
	return r, nil
}

// SuccessReply builds a SUCCESS reply echoing the request type.
func SuccessReply(reqType uint16, port uint16, ip [4]byte) Reply {
	return Reply{Type: reqType, Status: StatusSuccess, Port: port, IP: ip}
}

// NoServerReply builds a NO_SERVER reply echoing the request type.
func NoServerReply(reqType uint16) Reply {
	return Reply{Type: reqType, Status: StatusNoServer}
}

// UnknownTypeReply builds an UNKNOWN_TYPE reply echoing the raw (possibly
// unrecognized) request type as received.
func UnknownTypeReply(echoedType uint16) Reply {
	return Reply{Type: echoedType, Status: StatusUnknownType}
}
