package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/dbfiles/internal/common"
)

/*************
 * Fake pb client
 *************/

type fakePB struct {
	lastName    string
	lastContent []byte
	lastMD      metadata.MD

	openResp   []byte
	existsResp bool
	sizeResp   int64
	urlResp    string
	err        error
}

func (f *fakePB) record(ctx context.Context, name string) {
	f.lastName = name
	f.lastMD, _ = metadata.FromOutgoingContext(ctx)
}

func (f *fakePB) Open(ctx context.Context, in *wrapperspb.StringValue, _ ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	f.record(ctx, in.GetValue())
	if f.err != nil {
		return nil, f.err
	}
	return wrapperspb.Bytes(f.openResp), nil
}

func (f *fakePB) Save(ctx context.Context, in *wrapperspb.BytesValue, _ ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	f.record(ctx, "")
	f.lastContent = in.GetValue()
	if f.err != nil {
		return nil, f.err
	}
	names := f.lastMD.Get(common.FileNameHeaderName)
	if len(names) == 0 {
		return nil, status.Error(codes.InvalidArgument, "missing file name")
	}
	return wrapperspb.String(names[0]), nil
}

func (f *fakePB) Exists(ctx context.Context, in *wrapperspb.StringValue, _ ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	f.record(ctx, in.GetValue())
	if f.err != nil {
		return nil, f.err
	}
	return wrapperspb.Bool(f.existsResp), nil
}

func (f *fakePB) Delete(ctx context.Context, in *wrapperspb.StringValue, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	f.record(ctx, in.GetValue())
	if f.err != nil {
		return nil, f.err
	}
	return &emptypb.Empty{}, nil
}

func (f *fakePB) URL(ctx context.Context, in *wrapperspb.StringValue, _ ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	f.record(ctx, in.GetValue())
	if f.err != nil {
		return nil, f.err
	}
	return wrapperspb.String(f.urlResp), nil
}

func (f *fakePB) Size(ctx context.Context, in *wrapperspb.StringValue, _ ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	f.record(ctx, in.GetValue())
	if f.err != nil {
		return nil, f.err
	}
	return wrapperspb.Int64(f.sizeResp), nil
}

func TestGRPCClient_Operations(t *testing.T) {
	f := &fakePB{openResp: []byte("hello"), existsResp: true, sizeResp: 5, urlResp: "/files/a"}
	c := &GRPCClient{client: f}
	ctx := context.Background()

	name, err := c.Save(ctx, "a", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "a", name)
	assert.Equal(t, []byte("hello"), f.lastContent)

	content, err := c.Open(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)
	assert.Equal(t, "a", f.lastName)

	ok, err := c.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	size, err := c.Size(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	url, err := c.URL(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "/files/a", url)

	require.NoError(t, c.Delete(ctx, "a"))
}

func TestGRPCClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", status.Error(codes.NotFound, "not found"), common.ErrorNotFound},
		{"invalid", status.Error(codes.InvalidArgument, "bad name"), common.ErrInvalidName},
		{"unauthenticated", status.Error(codes.Unauthenticated, "missing token"), ErrUnauthorized},
		{"permission", status.Error(codes.PermissionDenied, "no"), ErrUnauthorized},
		{"unavailable", status.Error(codes.Unavailable, "down"), ErrUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &GRPCClient{client: &fakePB{err: tt.err}}
			_, err := c.Open(context.Background(), "x")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	c := &GRPCClient{}
	internal := status.Error(codes.Internal, "internal error")
	err := c.mapError(internal)
	assert.ErrorIs(t, err, internal)
	assert.Contains(t, err.Error(), "rpc error")
	assert.NoError(t, c.mapError(nil))
}

func TestAccessTokenInterceptor(t *testing.T) {
	var gotMD metadata.MD
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		gotMD, _ = metadata.FromOutgoingContext(ctx)
		return nil
	}

	c := &GRPCClient{accessToken: "tok"}
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.FileNameHeaderName, "a")
	require.NoError(t, c.accessTokenInterceptor(ctx, "/m", nil, nil, nil, invoker))
	assert.Equal(t, []string{"tok"}, gotMD.Get(common.AccessTokenHeaderName))
	assert.Equal(t, []string{"a"}, gotMD.Get(common.FileNameHeaderName), "existing metadata must be kept")

	c = &GRPCClient{}
	require.NoError(t, c.accessTokenInterceptor(context.Background(), "/m", nil, nil, nil, invoker))
	assert.Empty(t, gotMD.Get(common.AccessTokenHeaderName))

	boom := errors.New("boom")
	err := c.accessTokenInterceptor(context.Background(), "/m", nil, nil, nil,
		func(context.Context, string, interface{}, interface{}, *grpc.ClientConn, ...grpc.CallOption) error {
			return boom
		})
	assert.ErrorIs(t, err, boom)
}

func TestNewGRPCClient(t *testing.T) {
	c, err := NewGRPCClient("127.0.0.1:1", "tok", 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "tok", c.accessToken)
	require.NoError(t, c.Close())
}
