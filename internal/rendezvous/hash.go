package rendezvous

import (
	"fmt"
	"iter"
	"sort"
)

// Hash assigns keys of type K to nodes of type N by weighted rendezvous hashing.
//
// Lookups never block: Get, PreferenceList, Nodes and All read an immutable
// snapshot of the pool. Add and Remove serialize with each other only.
type Hash[K any, N Node] struct {
	hasher  Hasher
	keyEnc  Encoder[K]
	nodeEnc Encoder[N]
	nodes   *registry[N]
}

// New creates a Hash over the initial nodes. Duplicate IDs in init are
// collapsed to the first occurrence. It returns an error wrapping
// ErrInvalidArgument if hasher, either encoder, or init is nil; pass an empty
// non-nil slice to start with an empty pool.
func New[K any, N Node](hasher Hasher, keyEnc Encoder[K], nodeEnc Encoder[N], init []N) (*Hash[K, N], error) {
	if hasher == nil {
		return nil, fmt.Errorf("%w: hasher is nil", ErrInvalidArgument)
	}
	if keyEnc == nil {
		return nil, fmt.Errorf("%w: key encoder is nil", ErrInvalidArgument)
	}
	if nodeEnc == nil {
		return nil, fmt.Errorf("%w: node encoder is nil", ErrInvalidArgument)
	}
	if init == nil {
		return nil, fmt.Errorf("%w: initial nodes are nil", ErrInvalidArgument)
	}

	h := &Hash[K, N]{
		hasher:  hasher,
		keyEnc:  keyEnc,
		nodeEnc: nodeEnc,
		nodes:   newRegistry[N](),
	}
	for _, n := range init {
		h.nodes.add(n)
	}
	return h, nil
}

// Add puts node in the pool. It returns false if a node with the same ID is
// already present, in which case the pool is unchanged.
func (h *Hash[K, N]) Add(node N) bool {
	return h.nodes.add(node)
}

// Remove takes the node with node's ID out of the pool and reports whether it
// was present. Keys it owned move to their next best node.
func (h *Hash[K, N]) Remove(node N) bool {
	return h.nodes.remove(node)
}

// Contains reports whether a node with node's ID is in the pool.
func (h *Hash[K, N]) Contains(node N) bool {
	return h.nodes.contains(node.ID())
}

// Len returns the number of nodes in the pool.
func (h *Hash[K, N]) Len() int {
	return h.nodes.len()
}

// Nodes returns a copy of the pool, sorted by ID.
func (h *Hash[K, N]) Nodes() []N {
	snap := h.nodes.snapshot()
	out := make([]N, len(snap))
	copy(out, snap)
	return out
}

// All returns a restartable sequence over the pool.
func (h *Hash[K, N]) All() iter.Seq[N] {
	return h.nodes.all()
}

// Get returns the node owning key, or the zero N and false if the pool is empty.
//
// Ties are kept by the node visited first. The pool is traversed in ID order,
// so even a degenerate hasher produces the same owner in every process.
func (h *Hash[K, N]) Get(key K) (N, bool) {
	var (
		best      N
		bestScore float64
		found     bool
	)

	keyBytes := h.keyEnc.Encode(nil, key)
	var buf []byte
	for n := range h.nodes.all() {
		buf = h.nodeEnc.Encode(buf[:0], n)
		score := Score(h.hasher.Hash64(keyBytes, buf), n.Weight())
		if !found || score > bestScore {
			best = n
			bestScore = score
			found = true
		}
	}
	return best, found
}

// scored pairs a node with its score for one key.
type scored[N Node] struct {
	node  N
	score float64
}

// PreferenceList returns up to n nodes for key, highest score first. The first
// element is always the node Get returns. n <= 0 yields an empty list.
func (h *Hash[K, N]) PreferenceList(key K, n int) []N {
	if n <= 0 {
		return []N{}
	}

	snap := h.nodes.snapshot()
	if len(snap) == 0 {
		return []N{}
	}

	keyBytes := h.keyEnc.Encode(nil, key)
	ranked := make([]scored[N], 0, len(snap))
	var buf []byte
	for _, node := range snap {
		buf = h.nodeEnc.Encode(buf[:0], node)
		ranked = append(ranked, scored[N]{
			node:  node,
			score: Score(h.hasher.Hash64(keyBytes, buf), node.Weight()),
		})
	}

	// Stable so that ties keep traversal order, as in Get.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	result := make([]N, n)
	for i := 0; i < n; i++ {
		result[i] = ranked[i].node
	}
	return result
}
