// Package transport defines the scratchmap.v1.DocumentStore gRPC service shared
// by the client and the server. Messages travel as google.protobuf.Struct so
// that documents stay schemaless on the wire; typed request/response shapes
// live in messages.go.
package transport

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "scratchmap.v1.DocumentStore"

const (
	UpsertFullMethod             = "/" + ServiceName + "/Upsert"
	DeleteFullMethod             = "/" + ServiceName + "/Delete"
	GetFullMethod                = "/" + ServiceName + "/Get"
	QueryFullMethod              = "/" + ServiceName + "/Query"
	RegisterFullMethod           = "/" + ServiceName + "/Register"
	LoginFullMethod              = "/" + ServiceName + "/Login"
	PresignImageUploadFullMethod = "/" + ServiceName + "/PresignImageUpload"
)

// PublicMethods can be called without an access token.
var PublicMethods = map[string]struct{}{
	RegisterFullMethod: {},
	LoginFullMethod:    {},
}

// DocumentStoreServer is the server API for the DocumentStore service.
type DocumentStoreServer interface {
	Upsert(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Delete(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Get(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Query(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PresignImageUpload(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterDocumentStoreServer(s grpc.ServiceRegistrar, srv DocumentStoreServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type serverCall func(srv DocumentStoreServer, ctx context.Context, in *structpb.Struct) (any, error)

func unaryHandler(fullMethod string, call serverCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DocumentStoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DocumentStoreServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc is the grpc.ServiceDesc for the DocumentStore service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Upsert", Handler: unaryHandler(UpsertFullMethod, func(s DocumentStoreServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Upsert(ctx, in)
		})},
		{MethodName: "Delete", Handler: unaryHandler(DeleteFullMethod, func(s DocumentStoreServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Delete(ctx, in)
		})},
		{MethodName: "Get", Handler: unaryHandler(GetFullMethod, func(s DocumentStoreServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Get(ctx, in)
		})},
		{MethodName: "Query", Handler: unaryHandler(QueryFullMethod, func(s DocumentStoreServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Query(ctx, in)
		})},
		{MethodName: "Register", Handler: unaryHandler(RegisterFullMethod, func(s DocumentStoreServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Register(ctx, in)
		})},
		{MethodName: "Login", Handler: unaryHandler(LoginFullMethod, func(s DocumentStoreServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Login(ctx, in)
		})},
		{MethodName: "PresignImageUpload", Handler: unaryHandler(PresignImageUploadFullMethod, func(s DocumentStoreServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.PresignImageUpload(ctx, in)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scratchmap/v1/document_store.proto",
}

// DocumentStoreClient is the client API for the DocumentStore service.
type DocumentStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewDocumentStoreClient(cc grpc.ClientConnInterface) *DocumentStoreClient {
	return &DocumentStoreClient{cc: cc}
}

func (c *DocumentStoreClient) Upsert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, UpsertFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DocumentStoreClient) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, DeleteFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DocumentStoreClient) invokeStruct(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DocumentStoreClient) Get(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeStruct(ctx, GetFullMethod, in, opts...)
}

func (c *DocumentStoreClient) Query(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeStruct(ctx, QueryFullMethod, in, opts...)
}

func (c *DocumentStoreClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeStruct(ctx, RegisterFullMethod, in, opts...)
}

func (c *DocumentStoreClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeStruct(ctx, LoginFullMethod, in, opts...)
}

func (c *DocumentStoreClient) PresignImageUpload(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeStruct(ctx, PresignImageUploadFullMethod, in, opts...)
}
