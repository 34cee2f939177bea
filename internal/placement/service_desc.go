package placement

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service uses protobuf well-known types for every message, so it needs
// no generated code. The descriptor below is what protoc-gen-go-grpc would
// emit for:
//
//	service Placement {
//	  rpc Locate(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	  rpc Rank(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc Join(google.protobuf.Struct) returns (google.protobuf.BoolValue);
//	  rpc Leave(google.protobuf.StringValue) returns (google.protobuf.BoolValue);
//	  rpc Members(google.protobuf.Empty) returns (google.protobuf.Struct);
//	}
const (
	ServiceName = "hrwplace.v1.Placement"

	methodLocate  = "/" + ServiceName + "/Locate"
	methodRank    = "/" + ServiceName + "/Rank"
	methodJoin    = "/" + ServiceName + "/Join"
	methodLeave   = "/" + ServiceName + "/Leave"
	methodMembers = "/" + ServiceName + "/Members"
)

// PlacementServer is the server API for the placement service.
type PlacementServer interface {
	Locate(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Rank(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Join(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	Leave(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Members(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterPlacementServer registers srv on s.
func RegisterPlacementServer(s grpc.ServiceRegistrar, srv PlacementServer) {
	s.RegisterService(&placementServiceDesc, srv)
}

// unaryHandler builds a grpc.MethodHandler for a method taking Req.
func unaryHandler[Req any, Resp any](fullMethod string, call func(PlacementServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PlacementServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PlacementServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var placementServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlacementServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Locate",
			Handler:    unaryHandler(methodLocate, PlacementServer.Locate),
		},
		{
			MethodName: "Rank",
			Handler:    unaryHandler(methodRank, PlacementServer.Rank),
		},
		{
			MethodName: "Join",
			Handler:    unaryHandler(methodJoin, PlacementServer.Join),
		},
		{
			MethodName: "Leave",
			Handler:    unaryHandler(methodLeave, PlacementServer.Leave),
		},
		{
			MethodName: "Members",
			Handler:    unaryHandler(methodMembers, PlacementServer.Members),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hrwplace/v1/placement.proto",
}
