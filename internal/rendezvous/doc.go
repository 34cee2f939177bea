// Package rendezvous implements weighted highest-random-weight (HRW) hashing.
// It maps keys to nodes of a dynamic, weighted pool so that every caller
// observing the same pool agrees on the owner, and membership changes only
// move the keys owned by the node that joined or left.
package rendezvous
