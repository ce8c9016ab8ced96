// Package client talks to a remote dbfiles server over gRPC.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	pb "github.com/dmitrijs2005/dbfiles/internal/proto"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.StorageClient
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient dials endpointURL. accessToken may be empty for read-only
// use; maxMessageSize bounds received files (0 keeps the gRPC default).
func NewGRPCClient(endpointURL, accessToken string, maxMessageSize int) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}
	if maxMessageSize > 0 {
		opts = append(opts, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMessageSize),
			grpc.MaxCallSendMsgSize(maxMessageSize),
		))
	}

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewStorageClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Open(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.Open(ctx, wrapperspb.String(name))
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) Save(ctx context.Context, name string, content []byte) (string, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, common.FileNameHeaderName, name)
	resp, err := s.client.Save(ctx, wrapperspb.Bytes(content))
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) Exists(ctx context.Context, name string) (bool, error) {
	resp, err := s.client.Exists(ctx, wrapperspb.String(name))
	if err != nil {
		return false, s.mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) Delete(ctx context.Context, name string) error {
	if _, err := s.client.Delete(ctx, wrapperspb.String(name)); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) URL(ctx context.Context, name string) (string, error) {
	resp, err := s.client.URL(ctx, wrapperspb.String(name))
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) Size(ctx context.Context, name string) (int64, error) {
	resp, err := s.client.Size(ctx, wrapperspb.String(name))
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.GetValue(), nil
}

// mapError turns gRPC statuses back into the errors the local storage
// returns, so callers handle both the same way.
func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrInvalidName, st.Message())
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
