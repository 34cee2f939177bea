// Package config loads the placement service configuration from a YAML file
// and command-line peer lists.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	"hrwplace/internal/hashing"
	"hrwplace/internal/member"
)

const (
	defaultListenAddr = "127.0.0.1:7400"
	defaultLogLevel   = "info"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Peer is a pool member as declared in configuration.
type Peer struct {
	ID     string `yaml:"id"`
	Addr   string `yaml:"addr"`
	Weight int    `yaml:"weight"`
}

// Config holds the placement service configuration.
type Config struct {
	ID         string `yaml:"id,omitempty"`
	ListenAddr string `yaml:"listen,omitempty"`
	Hash       string `yaml:"hash,omitempty"`
	LogLevel   string `yaml:"log_level,omitempty"`
	Peers      []Peer `yaml:"nodes,omitempty"`
}

// Default returns a configuration with every optional field filled in and an
// empty pool.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// fileConfig is the on-disk shape of Config. Weight is a pointer so an
// omitted weight can be told apart from an explicit 0, which drains a member.
type fileConfig struct {
	ID         string `yaml:"id,omitempty"`
	ListenAddr string `yaml:"listen,omitempty"`
	Hash       string `yaml:"hash,omitempty"`
	LogLevel   string `yaml:"log_level,omitempty"`
	Nodes      []struct {
		ID     string `yaml:"id"`
		Addr   string `yaml:"addr"`
		Weight *int   `yaml:"weight,omitempty"`
	} `yaml:"nodes,omitempty"`
}

// Load reads and decodes the YAML file at path, then applies defaults.
// Nodes declared without a weight get member.DefaultWeight.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.UnmarshalStrict(data, &fc); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg := &Config{
		ID:         fc.ID,
		ListenAddr: fc.ListenAddr,
		Hash:       fc.Hash,
		LogLevel:   fc.LogLevel,
		Peers:      make([]Peer, 0, len(fc.Nodes)),
	}
	for _, n := range fc.Nodes {
		weight := member.DefaultWeight
		if n.Weight != nil {
			weight = *n.Weight
		}
		cfg.Peers = append(cfg.Peers, Peer{ID: n.ID, Addr: n.Addr, Weight: weight})
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// WriteFile encodes the configuration as YAML to path.
func (c *Config) WriteFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// ApplyDefaults fills in empty optional fields. An empty ID is replaced with a
// generated one.
func (c *Config) ApplyDefaults() {
	if c.ID == "" {
		c.ID = "placement-" + uuid.NewString()
	}
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.Hash == "" {
		c.Hash = hashing.Default
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Peers == nil {
		c.Peers = []Peer{}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen address cannot be empty", ErrInvalidConfig)
	}
	if _, err := hashing.ByName(c.Hash); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	seen := make(map[string]bool, len(c.Peers))
	for _, p := range c.Peers {
		if p.ID == "" || p.Addr == "" {
			return fmt.Errorf("%w: node ID and address cannot be empty: %+v", ErrInvalidConfig, p)
		}
		if !member.ValidWeight(p.Weight) {
			return fmt.Errorf("%w: node %s weight %d is outside [0, %d]", ErrInvalidConfig, p.ID, p.Weight, member.MaxWeight)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate node ID %s", ErrInvalidConfig, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// ParsePeers parses a comma-separated list of peers in the format:
// "id1=addr1,id2=addr2@weight2,id3=addr3"
// A peer without "@weight" gets member.DefaultWeight. An "@" not followed by
// an integer is kept as part of the address.
func ParsePeers(peersStr string) ([]Peer, error) {
	if peersStr == "" {
		return []Peer{}, nil
	}

	parts := strings.Split(peersStr, ",")
	peers := make([]Peer, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid peer format: %s (expected id=addr[@weight])", part)
		}

		id := strings.TrimSpace(kv[0])
		addr := strings.TrimSpace(kv[1])
		weight := member.DefaultWeight

		if at := strings.LastIndex(addr, "@"); at >= 0 {
			suffix := strings.TrimSpace(addr[at+1:])
			if isWeight(suffix) {
				w, err := strconv.Atoi(suffix)
				if err != nil {
					return nil, fmt.Errorf("invalid peer weight in %s: %w", part, err)
				}
				if !member.ValidWeight(w) {
					return nil, fmt.Errorf("peer weight must be in [0, %d]: %s", member.MaxWeight, part)
				}
				weight = w
				addr = strings.TrimSpace(addr[:at])
			}
		}

		if id == "" || addr == "" {
			return nil, fmt.Errorf("peer ID and address cannot be empty: %s", part)
		}

		peers = append(peers, Peer{
			ID:     id,
			Addr:   addr,
			Weight: weight,
		})
	}

	return peers, nil
}

// isWeight reports whether s looks like a weight suffix: optional minus sign
// followed by digits. Anything else after "@" belongs to the address.
func isWeight(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MergePeers adds peers to the configuration, replacing any file entry with the
// same ID.
func (c *Config) MergePeers(peers []Peer) {
	for _, p := range peers {
		replaced := false
		for i := range c.Peers {
			if c.Peers[i].ID == p.ID {
				c.Peers[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			c.Peers = append(c.Peers, p)
		}
	}
}

// BuildMembers converts config peers into pool members.
func (c *Config) BuildMembers() []member.Member {
	members := make([]member.Member, 0, len(c.Peers))
	for _, p := range c.Peers {
		members = append(members, member.New(p.ID, p.Addr, p.Weight))
	}
	return members
}
