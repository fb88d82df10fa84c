package wire

import (
	"encoding/binary"
	"fmt"
)

// ParseRequestType parses the 2-byte client request frame and returns its
// type field, regardless of whether it is recognized — the caller decides
// whether to answer SUCCESS/NO_SERVER or UNKNOWN_TYPE.
func ParseRequestType(b []byte) (uint16, error) {
	if len(b) != ClientRequestSize {
		return 0, fmt.Errorf("request frame: want %d bytes, got %d: %w", ClientRequestSize, len(b), ErrWireError)
	}
	return binary.LittleEndian.Uint16(b), nil
}

// MarshalRequest serializes a client request frame (used by demo clients).
func MarshalRequest(reqType uint16) []byte {
	b := make([]byte, ClientRequestSize)
	binary.LittleEndian.PutUint16(b, reqType)
	return b
}
