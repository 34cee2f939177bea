package rendezvous

import (
	"iter"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// registry is the set of pool members, kept sorted by ID.
//
// Readers load the current slice without locking; the slice is never mutated
// after it is published. Writers serialize on mu and publish a fresh copy.
type registry[N Node] struct {
	mu    sync.Mutex
	nodes atomic.Pointer[[]N]
}

func newRegistry[N Node]() *registry[N] {
	r := &registry[N]{}
	empty := make([]N, 0)
	r.nodes.Store(&empty)
	return r
}

// snapshot returns the currently published members. Callers must not modify it.
func (r *registry[N]) snapshot() []N {
	return *r.nodes.Load()
}

func (r *registry[N]) len() int {
	return len(r.snapshot())
}

// search returns the position of id in nodes and whether it is present.
func search[N Node](nodes []N, id string) (int, bool) {
	return slices.BinarySearchFunc(nodes, id, func(n N, target string) int {
		return strings.Compare(n.ID(), target)
	})
}

func (r *registry[N]) contains(id string) bool {
	_, found := search(r.snapshot(), id)
	return found
}

// add inserts node unless a member with the same ID exists.
func (r *registry[N]) add(node N) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snapshot()
	idx, found := search(cur, node.ID())
	if found {
		return false
	}

	next := make([]N, 0, len(cur)+1)
	next = append(next, cur[:idx]...)
	next = append(next, node)
	next = append(next, cur[idx:]...)
	r.nodes.Store(&next)
	return true
}

// remove deletes the member with node's ID.
func (r *registry[N]) remove(node N) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snapshot()
	idx, found := search(cur, node.ID())
	if !found {
		return false
	}

	next := make([]N, 0, len(cur)-1)
	next = append(next, cur[:idx]...)
	next = append(next, cur[idx+1:]...)
	r.nodes.Store(&next)
	return true
}

// all yields the members of one snapshot. Every range over the returned
// sequence takes a new snapshot, so it can be restarted and never repeats a
// member within one traversal.
func (r *registry[N]) all() iter.Seq[N] {
	return func(yield func(N) bool) {
		for _, n := range r.snapshot() {
			if !yield(n) {
				return
			}
		}
	}
}
