package rendezvous

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"hrwplace/internal/hashing"
)

type testNode struct {
	id     string
	weight int
}

func (n testNode) ID() string  { return n.id }
func (n testNode) Weight() int { return n.weight }

var testNodeEncoder = EncoderFunc[testNode](func(dst []byte, n testNode) []byte {
	return append(dst, n.id...)
})

func newTestHash(t testing.TB, nodes ...testNode) *Hash[string, testNode] {
	t.Helper()
	if nodes == nil {
		nodes = []testNode{}
	}
	h, err := New[string, testNode](hashing.Murmur3{}, hashing.String{}, testNodeEncoder, nodes)
	require.NoError(t, err)
	return h
}

// constHasher hashes every (key, node) pair to the same value.
type constHasher uint64

func (c constHasher) Hash64(_, _ []byte) uint64 { return uint64(c) }

func TestNew_InvalidArguments(t *testing.T) {
	tests := []struct {
		name    string
		hasher  Hasher
		keyEnc  Encoder[string]
		nodeEnc Encoder[testNode]
		init    []testNode
	}{
		{"nil hasher", nil, hashing.String{}, testNodeEncoder, []testNode{}},
		{"nil key encoder", hashing.Murmur3{}, nil, testNodeEncoder, []testNode{}},
		{"nil node encoder", hashing.Murmur3{}, hashing.String{}, nil, []testNode{}},
		{"nil initial nodes", hashing.Murmur3{}, hashing.String{}, testNodeEncoder, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(tt.hasher, tt.keyEnc, tt.nodeEnc, tt.init)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, h)
		})
	}
}

func TestNew_InitialNodes(t *testing.T) {
	h := newTestHash(t,
		testNode{"b", 1},
		testNode{"a", 2},
		testNode{"b", 7},
	)

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, []testNode{{"a", 2}, {"b", 1}}, h.Nodes(), "duplicates keep the first occurrence, pool is sorted by ID")
}

func TestHash_Empty(t *testing.T) {
	h := newTestHash(t)

	node, ok := h.Get("key")
	assert.False(t, ok)
	assert.Equal(t, testNode{}, node)
	assert.Empty(t, h.PreferenceList("key", 3))
	assert.Equal(t, 0, h.Len())
}

func TestHash_Get_Deterministic(t *testing.T) {
	h := newTestHash(t, testNode{"node1", 1}, testNode{"node2", 2}, testNode{"node3", 3})

	first, ok := h.Get("test-key-123")
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := h.Get("test-key-123")
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestHash_Get_SingleNode(t *testing.T) {
	h := newTestHash(t, testNode{"only", 1})

	for i := 0; i < 100; i++ {
		node, ok := h.Get(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
		assert.Equal(t, "only", node.ID())
	}
}

func TestHash_AddIdempotent(t *testing.T) {
	h := newTestHash(t)
	n := testNode{"node1", 1}

	assert.True(t, h.Add(n))
	assert.False(t, h.Add(n))
	assert.False(t, h.Add(testNode{"node1", 50}), "same ID is the same member")
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, 1, h.Nodes()[0].Weight())
}

func TestHash_Remove(t *testing.T) {
	h := newTestHash(t, testNode{"node1", 1}, testNode{"node2", 1})

	assert.True(t, h.Remove(testNode{"node1", 1}))
	assert.False(t, h.Remove(testNode{"node1", 1}))
	assert.False(t, h.Remove(testNode{"missing", 1}))
	assert.False(t, h.Contains(testNode{"node1", 1}))
	assert.True(t, h.Contains(testNode{"node2", 0}))
	assert.Equal(t, 1, h.Len())
}

func TestHash_PreviousDeleted(t *testing.T) {
	node1 := testNode{"node1", 1}
	node2 := testNode{"node2", 2}
	h := newTestHash(t, node1, node2)

	owner, ok := h.Get("key")
	require.True(t, ok)
	require.True(t, h.Remove(owner))

	next, ok := h.Get("key")
	require.True(t, ok)
	assert.Contains(t, []testNode{node1, node2}, next)
	assert.NotEqual(t, owner, next)
}

func TestHash_ReAdd(t *testing.T) {
	h := newTestHash(t, testNode{"node1", 1}, testNode{"node2", 2})

	owner, ok := h.Get("key")
	require.True(t, ok)
	require.True(t, h.Remove(owner))
	require.True(t, h.Add(owner))

	again, ok := h.Get("key")
	require.True(t, ok)
	assert.Equal(t, owner, again)
}

func TestHash_PreferenceList(t *testing.T) {
	h := newTestHash(t, testNode{"node1", 1}, testNode{"node2", 1}, testNode{"node3", 1})

	list := h.PreferenceList("test-key", 3)
	require.Len(t, list, 3)

	seen := make(map[string]bool)
	for _, n := range list {
		assert.False(t, seen[n.ID()], "duplicate node %s in preference list", n.ID())
		seen[n.ID()] = true
	}

	owner, _ := h.Get("test-key")
	assert.Equal(t, owner, list[0])
	assert.Equal(t, list[:2], h.PreferenceList("test-key", 2))
}

func TestHash_PreferenceListPartial(t *testing.T) {
	h := newTestHash(t, testNode{"node1", 1}, testNode{"node2", 1})

	assert.Len(t, h.PreferenceList("key", 5), 2)
	assert.Empty(t, h.PreferenceList("key", 0))
	assert.Empty(t, h.PreferenceList("key", -1))
}

func TestHash_NodesIsACopy(t *testing.T) {
	h := newTestHash(t, testNode{"node1", 1}, testNode{"node2", 1})

	nodes := h.Nodes()
	nodes[0] = testNode{"mutated", 9}

	assert.Equal(t, "node1", h.Nodes()[0].ID())
}

func TestHash_AllRestartable(t *testing.T) {
	h := newTestHash(t, testNode{"c", 1}, testNode{"a", 1}, testNode{"b", 1})

	var first []string
	for n := range h.All() {
		first = append(first, n.ID())
		if len(first) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, first)

	var second []string
	for n := range h.All() {
		second = append(second, n.ID())
	}
	assert.Equal(t, []string{"a", "b", "c"}, second)
}

func TestHash_ZeroWeightLosesToPositive(t *testing.T) {
	h := newTestHash(t, testNode{"drained", 0}, testNode{"live", 1})

	for i := 0; i < 1000; i++ {
		node, ok := h.Get(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
		assert.Equal(t, "live", node.ID())
	}
}

func TestHash_NegativeWeightsPassThrough(t *testing.T) {
	nodes := []testNode{{"n1", -1}, {"n2", -5}, {"n3", -10}}
	h := newTestHash(t, nodes...)

	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("key-%d", i)
		got, ok := h.Get(key)
		require.True(t, ok, "negative weights are still selectable")

		best := got
		bestScore := Score(hashing.Murmur3{}.Hash64([]byte(key), []byte(got.id)), got.weight)
		for _, n := range nodes {
			s := Score(hashing.Murmur3{}.Hash64([]byte(key), []byte(n.id)), n.weight)
			assert.LessOrEqual(t, s, bestScore, "key %s: %s outscored winner %s", key, n.id, best.id)
		}
	}
}

func TestHash_ConcurrentAccess(t *testing.T) {
	stable := make([]testNode, 0, 10)
	for i := 0; i < 10; i++ {
		stable = append(stable, testNode{fmt.Sprintf("stable-%d", i), i + 1})
	}
	h := newTestHash(t, stable...)

	universe := make(map[string]bool)
	for _, n := range stable {
		universe[n.id] = true
	}
	churn := make([]testNode, 0, 10)
	for i := 0; i < 10; i++ {
		n := testNode{fmt.Sprintf("churn-%d", i), i + 1}
		churn = append(churn, n)
		universe[n.id] = true
	}

	var g errgroup.Group
	for w := 0; w < 2; w++ {
		g.Go(func() error {
			for round := 0; round < 200; round++ {
				for _, n := range churn {
					h.Add(n)
				}
				for _, n := range churn {
					h.Remove(n)
				}
			}
			return nil
		})
	}

	for r := 0; r < 8; r++ {
		g.Go(func() error {
			for i := 0; i < 2000; i++ {
				node, ok := h.Get(fmt.Sprintf("key-%d-%d", r, i))
				if !ok || !universe[node.id] {
					return fmt.Errorf("reader %d got %v (found=%v)", r, node, ok)
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, len(stable), h.Len(), "all churn nodes are removed at the end")
}

func BenchmarkHash_Get(b *testing.B) {
	h := newTestHash(b)
	for n := 0; n < 100; n++ {
		h.Add(testNode{fmt.Sprintf("10.10.3.%d:7496", n), n + 1})
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = h.Get(fmt.Sprintf("test%d", i))
	}
}
