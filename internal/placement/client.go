package placement

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hrwplace/internal/member"
)

// Snapshot is the pool as reported by Members.
type Snapshot struct {
	Members  []member.Member
	Checksum string
}

// Client calls a placement service.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// Dial creates a client for the placement service at addr. Extra options are
// appended after the default insecure transport credentials.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Client{cc: conn, conn: conn}, nil
}

// NewClient wraps an existing connection. Close is a no-op for such clients.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close closes the connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Locate returns the member owning key. found is false when the pool is empty.
func (c *Client) Locate(ctx context.Context, key string) (m member.Member, found bool, err error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodLocate, wrapperspb.String(key), out); err != nil {
		if status.Code(err) == codes.NotFound {
			return member.Member{}, false, nil
		}
		return member.Member{}, false, err
	}
	m, err = protoToMember(out)
	if err != nil {
		return member.Member{}, false, err
	}
	return m, true, nil
}

// Rank returns up to n members for key, best first.
func (c *Client) Rank(ctx context.Context, key string, n int) ([]member.Member, error) {
	in := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldKey: structpb.NewStringValue(key),
			fieldN:   structpb.NewNumberValue(float64(n)),
		},
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodRank, in, out); err != nil {
		return nil, err
	}
	return protoToMembers(out)
}

// Join announces m to the pool and reports whether it was added.
func (c *Client) Join(ctx context.Context, m member.Member) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, methodJoin, memberToProto(m), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Leave removes the member with id and reports whether it was present.
func (c *Client) Leave(ctx context.Context, id string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, methodLeave, wrapperspb.String(id), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Members returns the pool and its checksum.
func (c *Client) Members(ctx context.Context) (Snapshot, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodMembers, &emptypb.Empty{}, out); err != nil {
		return Snapshot{}, err
	}
	members, err := protoToMembers(out)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Members:  members,
		Checksum: out.GetFields()[fieldChecksum].GetStringValue(),
	}, nil
}
