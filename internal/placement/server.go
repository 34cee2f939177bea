package placement

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hrwplace/internal/hashing"
	"hrwplace/internal/member"
	"hrwplace/internal/rendezvous"
)

// Pool is the rendezvous hash the service places keys on.
type Pool = rendezvous.Hash[string, member.Member]

// NewPool creates a pool of members keyed by string, hashing member IDs.
func NewPool(hasher rendezvous.Hasher, members []member.Member) (*Pool, error) {
	if members == nil {
		members = []member.Member{}
	}
	return rendezvous.New[string, member.Member](hasher, hashing.String{}, member.IDEncoder{}, members)
}

// Server implements the placement gRPC service.
type Server struct {
	pool      *Pool
	serviceID string
	logger    *log.Entry
}

var _ PlacementServer = (*Server)(nil)

// NewServer creates a new placement server over pool.
func NewServer(pool *Pool, serviceID string) *Server {
	return &Server{
		pool:      pool,
		serviceID: serviceID,
		logger:    log.WithField("caller", "placement").WithField("service", serviceID),
	}
}

// Locate returns the member owning the key.
func (s *Server) Locate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	key := req.GetValue()
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "key cannot be empty")
	}

	owner, ok := s.pool.Get(key)
	if !ok {
		return nil, status.Error(codes.NotFound, "no members in pool")
	}
	return memberToProto(owner), nil
}

// Rank returns up to n members for the key, best first.
func (s *Server) Rank(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	key := fields[fieldKey].GetStringValue()
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "key cannot be empty")
	}

	n := 1
	if v, ok := fields[fieldN]; ok {
		parsed, err := toInt(v.GetNumberValue())
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "n: %v", err)
		}
		n = parsed
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldMembers: membersToProto(s.pool.PreferenceList(key, n)),
		},
	}, nil
}

// Join adds a member to the pool. It reports false if the ID is already present.
func (s *Server) Join(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	m, err := protoToMember(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid member: %v", err)
	}
	if m.ID() == "" {
		return nil, status.Error(codes.InvalidArgument, "member ID cannot be empty")
	}
	if !member.ValidWeight(m.Weight()) {
		return nil, status.Errorf(codes.InvalidArgument, "member %s weight %d is outside [0, %d]", m.ID(), m.Weight(), member.MaxWeight)
	}

	added := s.pool.Add(m)
	entry := s.logger.WithField("member", m.String())
	if added {
		entry.WithField("members", s.pool.Len()).Info("Member joined")
	} else {
		entry.Debug("Member already present")
	}
	return wrapperspb.Bool(added), nil
}

// Leave removes the member with the given ID. It reports false if it was absent.
func (s *Server) Leave(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	id := req.GetValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "member ID cannot be empty")
	}

	removed := s.pool.Remove(member.Ref(id))
	entry := s.logger.WithField("member", id)
	if removed {
		entry.WithField("members", s.pool.Len()).Info("Member left")
	} else {
		entry.Debug("Member not present")
	}
	return wrapperspb.Bool(removed), nil
}

// Members lists the pool with its checksum.
func (s *Server) Members(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	members := s.pool.Nodes()
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldMembers:  membersToProto(members),
			fieldChecksum: structpb.NewStringValue(formatChecksum(member.Checksum(members))),
		},
	}, nil
}

func formatChecksum(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
