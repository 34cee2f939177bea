package it

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"hrwplace/internal/hashing"
	"hrwplace/internal/member"
	"hrwplace/internal/placement"
)

// Cluster is a set of placement services started from the same member list,
// each on its own loopback TCP port.
type Cluster struct {
	hash  string
	nodes []*Node
	mu    sync.Mutex
}

// Node is one running placement service in the cluster.
type Node struct {
	ID      string
	Addr    string
	svc     *placement.Service
	done    chan error
	client  *placement.Client
	healthc healthpb.HealthClient
	conn    *grpc.ClientConn
}

// NewCluster creates an empty cluster whose services hash with the named algorithm.
func NewCluster(hash string) (*Cluster, error) {
	if _, err := hashing.ByName(hash); err != nil {
		return nil, err
	}
	return &Cluster{hash: hash}, nil
}

// StartNode starts a placement service seeded with members.
func (c *Cluster) StartNode(ctx context.Context, nodeID string, members []member.Member) error {
	hasher, err := hashing.ByName(c.hash)
	if err != nil {
		return err
	}
	pool, err := placement.NewPool(hasher, members)
	if err != nil {
		return fmt.Errorf("failed to create pool for %s: %w", nodeID, err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen for %s: %w", nodeID, err)
	}
	addr := lis.Addr().String()

	svc := placement.NewService(nodeID, addr, pool)
	done := make(chan error, 1)
	go func() { done <- svc.Serve(lis) }()

	client, err := placement.Dial(addr)
	if err != nil {
		svc.Stop()
		<-done
		return fmt.Errorf("failed to dial node %s: %w", nodeID, err)
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		_ = client.Close()
		svc.Stop()
		<-done
		return fmt.Errorf("failed to dial health for %s: %w", nodeID, err)
	}

	node := &Node{
		ID:      nodeID,
		Addr:    addr,
		svc:     svc,
		done:    done,
		client:  client,
		healthc: healthpb.NewHealthClient(conn),
		conn:    conn,
	}

	c.mu.Lock()
	c.nodes = append(c.nodes, node)
	c.mu.Unlock()

	if err := waitForReady(ctx, node, 10*time.Second); err != nil {
		return fmt.Errorf("node %s failed to become ready: %w", nodeID, err)
	}
	return nil
}

// waitForReady polls the health service until the node reports SERVING.
func waitForReady(ctx context.Context, node *Node, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		healthCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		resp, err := node.healthc.Check(healthCtx, &healthpb.HealthCheckRequest{Service: placement.ServiceName})
		cancel()
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for node %s to be ready", node.ID)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// StartCluster starts n services, all seeded with the same members.
func (c *Cluster) StartCluster(ctx context.Context, n int, members []member.Member) error {
	for i := 1; i <= n; i++ {
		if err := c.StartNode(ctx, fmt.Sprintf("p%d", i), members); err != nil {
			return err
		}
	}
	return nil
}

// Nodes returns the running nodes in start order.
func (c *Cluster) Nodes() []*Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// GetNode returns the node with the given ID, or nil.
func (c *Cluster) GetNode(id string) *Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Join announces m to every node and fails if any node rejects it.
func (c *Cluster) Join(ctx context.Context, m member.Member) error {
	for _, n := range c.Nodes() {
		if _, err := n.client.Join(ctx, m); err != nil {
			return fmt.Errorf("join %s on %s: %w", m.ID(), n.ID, err)
		}
	}
	return nil
}

// Leave removes id from every node.
func (c *Cluster) Leave(ctx context.Context, id string) error {
	for _, n := range c.Nodes() {
		if _, err := n.client.Leave(ctx, id); err != nil {
			return fmt.Errorf("leave %s on %s: %w", id, n.ID, err)
		}
	}
	return nil
}

// Stop stops all nodes in the cluster.
func (c *Cluster) Stop() {
	c.mu.Lock()
	nodes := c.nodes
	c.nodes = nil
	c.mu.Unlock()

	for _, n := range nodes {
		n.Stop()
	}
}

// Stop closes the node's clients and stops its service.
func (n *Node) Stop() {
	_ = n.client.Close()
	_ = n.conn.Close()
	n.svc.Stop()
	select {
	case <-n.done:
	case <-time.After(5 * time.Second):
	}
}

// Client returns the placement client for the node.
func (n *Node) Client() *placement.Client {
	return n.client
}
