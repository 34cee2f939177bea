package hashing

import (
	"encoding/binary"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-farm"
	"github.com/spaolacci/murmur3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestHashers_StreamKeyThenNode(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			h, err := ByName(name)
			require.NoError(t, err)

			// Only the concatenation matters.
			assert.Equal(t, h.Hash64([]byte("ab"), []byte("cd")), h.Hash64([]byte("abc"), []byte("d")))
			assert.Equal(t, h.Hash64([]byte("abcd"), nil), h.Hash64(nil, []byte("abcd")))

			// Key comes first.
			assert.NotEqual(t, h.Hash64([]byte("key"), []byte("node")), h.Hash64([]byte("node"), []byte("key")))

			// Deterministic.
			assert.Equal(t, h.Hash64([]byte("key"), []byte("node")), h.Hash64([]byte("key"), []byte("node")))
		})
	}
}

func TestHashers_MatchLibraries(t *testing.T) {
	key, node := []byte("user:42"), []byte("cache-a")
	joined := []byte("user:42cache-a")

	h1, _ := murmur3.Sum128(joined)
	assert.Equal(t, h1, Murmur3{}.Hash64(key, node))
	assert.Equal(t, xxhash.Sum64(joined), XXHash{}.Hash64(key, node))
	assert.Equal(t, farm.Fingerprint64(joined), Farm{}.Hash64(key, node))

	b := blake3.New(8, nil)
	_, _ = b.Write(joined)
	assert.Equal(t, binary.LittleEndian.Uint64(b.Sum(nil)), Blake3{}.Hash64(key, node))
}

func TestFunc(t *testing.T) {
	var calls int
	f := Func(func(key, node []byte) uint64 {
		calls++
		return uint64(len(key))<<32 | uint64(len(node))
	})

	assert.Equal(t, uint64(3)<<32|2, f.Hash64([]byte("abc"), []byte("de")))
	assert.Equal(t, 1, calls)
}

func TestByName(t *testing.T) {
	tests := []struct {
		name    string
		want    Hasher
		wantErr bool
	}{
		{name: "", want: Murmur3{}},
		{name: "murmur3", want: Murmur3{}},
		{name: "XXHash", want: XXHash{}},
		{name: "farm", want: Farm{}},
		{name: "blake3", want: Blake3{}},
		{name: "fnv", want: FNV{}},
		{name: "md5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ByName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownHash)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"blake3", "farm", "fnv", "murmur3", "xxhash"}, Names())
}

func TestEncoders(t *testing.T) {
	assert.Equal(t, []byte("prefix-key"), String{}.Encode([]byte("prefix-"), "key"))
	assert.Equal(t, []byte{1, 2, 3}, Bytes{}.Encode(nil, []byte{1, 2, 3}))
	assert.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, Uint64{}.Encode(nil, 0x0102030405060708))
	assert.Empty(t, String{}.Encode(nil, ""))
}
