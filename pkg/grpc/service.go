package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The service is described by hand instead of generated: every message is a
// google.protobuf.Struct carrying the same JSON shapes the HTTP API uses.
//
//	service ReadingService {
//	  rpc PostReading(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc Query(google.protobuf.Struct) returns (google.protobuf.Struct);
//	  rpc PostLimiter(google.protobuf.Struct) returns (google.protobuf.Struct);
//	}
const (
	ServiceName = "pressure.v1.ReadingService"

	PostReadingMethod = "/" + ServiceName + "/PostReading"
	QueryMethod       = "/" + ServiceName + "/Query"
	PostLimiterMethod = "/" + ServiceName + "/PostLimiter"
)

type ReadingServiceServer interface {
	PostReading(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Query(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PostLimiter(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(
	fullMethod string,
	call func(ReadingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ReadingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ReadingServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ReadingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReadingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PostReading", Handler: unaryHandler(PostReadingMethod, ReadingServiceServer.PostReading)},
		{MethodName: "Query", Handler: unaryHandler(QueryMethod, ReadingServiceServer.Query)},
		{MethodName: "PostLimiter", Handler: unaryHandler(PostLimiterMethod, ReadingServiceServer.PostLimiter)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pressure/v1/reading_service.proto",
}

func RegisterReadingServiceServer(s grpc.ServiceRegistrar, srv ReadingServiceServer) {
	s.RegisterService(&ReadingServiceDesc, srv)
}

type ReadingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewReadingServiceClient(cc grpc.ClientConnInterface) *ReadingServiceClient {
	return &ReadingServiceClient{cc: cc}
}

func (c *ReadingServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReadingServiceClient) PostReading(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PostReadingMethod, in, opts...)
}

func (c *ReadingServiceClient) Query(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, QueryMethod, in, opts...)
}

func (c *ReadingServiceClient) PostLimiter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PostLimiterMethod, in, opts...)
}
