package hashing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-farm"
	"github.com/spaolacci/murmur3"
	"lukechampine.com/blake3"
)

// ErrUnknownHash is returned by ByName for an unregistered algorithm.
var ErrUnknownHash = errors.New("unknown hash algorithm")

// Hasher hashes one key and one node, key first.
type Hasher interface {
	Hash64(key, node []byte) uint64
}

// Func adapts a plain function to Hasher.
type Func func(key, node []byte) uint64

// Hash64 calls f(key, node).
func (f Func) Hash64(key, node []byte) uint64 {
	return f(key, node)
}

// Murmur3 returns the first 64 bits (h1) of MurmurHash3 x64/128 with seed 0.
// This is the value Guava's murmur3_128().asLong() yields for the same bytes.
type Murmur3 struct{}

// Hash64 implements Hasher.
func (Murmur3) Hash64(key, node []byte) uint64 {
	h := murmur3.New128()
	_, _ = h.Write(key)
	_, _ = h.Write(node)
	h1, _ := h.Sum128()
	return h1
}

// XXHash is 64-bit xxHash.
type XXHash struct{}

// Hash64 implements Hasher.
func (XXHash) Hash64(key, node []byte) uint64 {
	d := xxhash.New()
	_, _ = d.Write(key)
	_, _ = d.Write(node)
	return d.Sum64()
}

// Farm is farmhash Fingerprint64, which is stable across releases.
type Farm struct{}

// Hash64 implements Hasher.
func (Farm) Hash64(key, node []byte) uint64 {
	return farm.Fingerprint64(concat(key, node))
}

// Blake3 is an 8-byte BLAKE3 digest read as a little-endian integer.
type Blake3 struct{}

// Hash64 implements Hasher.
func (Blake3) Hash64(key, node []byte) uint64 {
	h := blake3.New(8, nil)
	_, _ = h.Write(key)
	_, _ = h.Write(node)
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

// FNV is 64-bit FNV-1a.
type FNV struct{}

// Hash64 implements Hasher.
func (FNV) Hash64(key, node []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(key)
	_, _ = h.Write(node)
	return h.Sum64()
}

func concat(a, b []byte) []byte {
	buf := make([]byte, 0, len(a)+len(b))
	buf = append(buf, a...)
	return append(buf, b...)
}

// Default is the algorithm used when none is configured.
const Default = "murmur3"

var registered = map[string]Hasher{
	"murmur3": Murmur3{},
	"xxhash":  XXHash{},
	"farm":    Farm{},
	"blake3":  Blake3{},
	"fnv":     FNV{},
}

// ByName returns the hasher registered under name (case-insensitive).
// An empty name selects Default.
func ByName(name string) (Hasher, error) {
	if name == "" {
		name = Default
	}
	h, ok := registered[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHash, name)
	}
	return h, nil
}

// Names lists the registered algorithms in sorted order.
func Names() []string {
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
