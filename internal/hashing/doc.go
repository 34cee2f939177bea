// Package hashing provides the hash providers and canonical encoders used to
// feed keys and nodes into rendezvous scoring.
//
// Every provider hashes the key bytes followed by the node bytes as a single
// stream, so Hash64(a, b) depends only on the concatenation of a and b.
package hashing
