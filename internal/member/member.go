// Package member defines the weighted pool member placed by the rendezvous
// hash: a backend identified by ID, reachable at Addr, with a relative weight.
package member

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dgryski/go-farm"
)

// DefaultWeight is the weight of a member declared without one.
const DefaultWeight = 1

// MaxWeight is the largest weight a member may carry. Weights travel as
// protobuf numbers and are decoded into 32-bit range on the wire.
const MaxWeight = math.MaxInt32

// ValidWeight reports whether w is in [0, MaxWeight].
func ValidWeight(w int) bool {
	return w >= 0 && w <= MaxWeight
}

// Member is a backend node in the pool. Identity is the ID alone: two members
// with the same ID and different addresses or weights are the same member.
type Member struct {
	id     string
	addr   string
	weight int
}

// New creates a member.
func New(id, addr string, weight int) Member {
	return Member{id: id, addr: addr, weight: weight}
}

// Ref creates a member usable only for identity lookups, such as Remove.
func Ref(id string) Member {
	return Member{id: id}
}

// ID returns the member's identity.
func (m Member) ID() string { return m.id }

// Addr returns the member's address.
func (m Member) Addr() string { return m.addr }

// Weight returns the member's relative weight.
func (m Member) Weight() int { return m.weight }

// String renders the member as id=addr@weight, the peer syntax used by config.
func (m Member) String() string {
	return fmt.Sprintf("%s=%s@%d", m.id, m.addr, m.weight)
}

// IDEncoder encodes only the member ID. Weight and address are left out so a
// member keeps its hash inputs when it is re-weighted or moved.
type IDEncoder struct{}

// Encode implements rendezvous.Encoder.
func (IDEncoder) Encode(dst []byte, m Member) []byte {
	return append(dst, m.id...)
}

// Checksum fingerprints a pool: two pools with the same IDs and weights have
// the same checksum regardless of order. Addresses are not included. Each ID
// is length-prefixed so separator bytes inside an ID cannot alias another pool.
func Checksum(members []Member) uint64 {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		parts = append(parts, fmt.Sprintf("%d:%s@%d", len(m.id), m.id, m.weight))
	}
	sort.Strings(parts)
	return farm.Fingerprint64([]byte(strings.Join(parts, ";")))
}
