package hashing

import "encoding/binary"

// String encodes a string as its raw bytes.
type String struct{}

// Encode implements rendezvous.Encoder.
func (String) Encode(dst []byte, v string) []byte {
	return append(dst, v...)
}

// Bytes encodes a byte slice as itself.
type Bytes struct{}

// Encode implements rendezvous.Encoder.
func (Bytes) Encode(dst []byte, v []byte) []byte {
	return append(dst, v...)
}

// Uint64 encodes an integer as 8 little-endian bytes.
type Uint64 struct{}

// Encode implements rendezvous.Encoder.
func (Uint64) Encode(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}
