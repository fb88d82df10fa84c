package wire

import (
	"encoding/binary"
	"fmt"
)

// ParseHeader parses a 2-byte backend message header and returns its type.
func ParseHeader(b []byte) (uint16, error) {
	if len(b) != HeaderSize {
		return 0, fmt.Errorf("backend header: want %d bytes, got %d: %w", HeaderSize, len(b), ErrWireError)
	}
	return binary.LittleEndian.Uint16(b), nil
}

// MarshalHeader serializes a backend message header (used by the demo
// backend).
func MarshalHeader(headerType uint16) []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(b, headerType)
	return b
}

// ParsePortBody parses a PORT message body (2-byte little-endian port).
func ParsePortBody(b []byte) (uint16, error) {
	if len(b) != PortBodySize {
		return 0, fmt.Errorf("port body: want %d bytes, got %d: %w", PortBodySize, len(b), ErrWireError)
	}
	return binary.LittleEndian.Uint16(b), nil
}

// MarshalPortBody serializes a PORT message body.
func MarshalPortBody(port uint16) []byte {
	b := make([]byte, PortBodySize)
	binary.LittleEndian.PutUint16(b, port)
	return b
}

// ParseStatusBody parses a STATUS message body (8-byte little-endian signed
// client count).
func ParseStatusBody(b []byte) (int64, error) {
	if len(b) != StatusBodySize {
		return 0, fmt.Errorf("status body: want %d bytes, got %d: %w", StatusBodySize, len(b), ErrWireError)
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

// MarshalStatusBody serializes a STATUS message body.
func MarshalStatusBody(count int64) []byte {
	b := make([]byte, StatusBodySize)
	binary.LittleEndian.PutUint64(b, uint64(count))
	return b
}
