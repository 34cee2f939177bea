package rendezvous

import "errors"

// ErrInvalidArgument is returned by New when a required collaborator is missing.
var ErrInvalidArgument = errors.New("rendezvous: invalid argument")

// Node is a member of the pool.
//
// ID is the node's stable identity: two nodes with the same ID are the same
// pool member, and IDs also give the registry its total order. Weight scales
// the share of keys the node receives. Weights are not validated; a zero
// weight scores 0 for every key and a negative weight scores below it.
type Node interface {
	ID() string
	Weight() int
}

// Hasher produces the 64-bit hash of one key and one node. The key bytes are
// always passed first. Implementations must be deterministic across processes
// for callers on different machines to agree on placement.
type Hasher interface {
	Hash64(key, node []byte) uint64
}

// Encoder appends the canonical byte encoding of v to dst and returns the
// extended slice. Equal values must encode identically.
type Encoder[T any] interface {
	Encode(dst []byte, v T) []byte
}

// EncoderFunc adapts a plain function to Encoder.
type EncoderFunc[T any] func(dst []byte, v T) []byte

// Encode calls f(dst, v).
func (f EncoderFunc[T]) Encode(dst []byte, v T) []byte {
	return f(dst, v)
}
