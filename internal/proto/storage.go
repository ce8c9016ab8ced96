// Package proto describes the dbfiles.v1.Storage gRPC service. Messages are
// protobuf well-known wrapper types, so the descriptor is written by hand
// instead of being generated from a .proto file:
//
//	service Storage {
//	  rpc Open(google.protobuf.StringValue) returns (google.protobuf.BytesValue);
//	  rpc Save(google.protobuf.BytesValue) returns (google.protobuf.StringValue); // name in "file_name" metadata
//	  rpc Exists(google.protobuf.StringValue) returns (google.protobuf.BoolValue);
//	  rpc Delete(google.protobuf.StringValue) returns (google.protobuf.Empty);
//	  rpc URL(google.protobuf.StringValue) returns (google.protobuf.StringValue);
//	  rpc Size(google.protobuf.StringValue) returns (google.protobuf.Int64Value);
//	}
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "dbfiles.v1.Storage"

// Full method names, as seen by interceptors.
const (
	MethodOpen   = "/" + ServiceName + "/Open"
	MethodSave   = "/" + ServiceName + "/Save"
	MethodExists = "/" + ServiceName + "/Exists"
	MethodDelete = "/" + ServiceName + "/Delete"
	MethodURL    = "/" + ServiceName + "/URL"
	MethodSize   = "/" + ServiceName + "/Size"
)

// StorageServer is the server API for the Storage service.
type StorageServer interface {
	Open(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Save(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Exists(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Delete(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	URL(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Size(context.Context, *wrapperspb.StringValue) (*wrapperspb.Int64Value, error)
}

// unaryHandler adapts a typed server method to a grpc.MethodHandler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(StorageServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StorageServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(StorageServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Storage_ServiceDesc is the grpc.ServiceDesc for the Storage service.
var Storage_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StorageServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Open", Handler: unaryHandler(MethodOpen, StorageServer.Open)},
		{MethodName: "Save", Handler: unaryHandler(MethodSave, StorageServer.Save)},
		{MethodName: "Exists", Handler: unaryHandler(MethodExists, StorageServer.Exists)},
		{MethodName: "Delete", Handler: unaryHandler(MethodDelete, StorageServer.Delete)},
		{MethodName: "URL", Handler: unaryHandler(MethodURL, StorageServer.URL)},
		{MethodName: "Size", Handler: unaryHandler(MethodSize, StorageServer.Size)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dbfiles/v1/storage.proto",
}

// RegisterStorageServer registers srv on s.
func RegisterStorageServer(s grpc.ServiceRegistrar, srv StorageServer) {
	s.RegisterService(&Storage_ServiceDesc, srv)
}

// StorageClient is the client API for the Storage service.
type StorageClient interface {
	Open(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Save(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Exists(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	Delete(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	URL(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Size(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
}

type storageClient struct {
	cc grpc.ClientConnInterface
}

func NewStorageClient(cc grpc.ClientConnInterface) StorageClient {
	return &storageClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storageClient) Open(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c.cc, MethodOpen, in, opts)
}

func (c *storageClient) Save(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, MethodSave, in, opts)
}

func (c *storageClient) Exists(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	return invoke[wrapperspb.BoolValue](ctx, c.cc, MethodExists, in, opts)
}

func (c *storageClient) Delete(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, MethodDelete, in, opts)
}

func (c *storageClient) URL(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, MethodURL, in, opts)
}

func (c *storageClient) Size(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	return invoke[wrapperspb.Int64Value](ctx, c.cc, MethodSize, in, opts)
}
