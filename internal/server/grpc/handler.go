package grpc

import (
	"bytes"
	"context"
	"errors"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/dbfiles/internal/common"
)

// toStatus maps storage errors onto gRPC codes. Unexpected errors are logged
// and reported as Internal without detail.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrInvalidName), errors.Is(err, common.ErrMalformedInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error(ctx, "storage error", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) Open(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	f, err := s.storage.Open(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return wrapperspb.Bytes(content), nil
}

func (s *GRPCServer) Save(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	var name string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.FileNameHeaderName); len(values) > 0 {
			name = values[0]
		}
	}
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "missing file name")
	}

	saved, err := s.storage.Save(ctx, name, bytes.NewReader(req.GetValue()))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Saved", "name", saved, "size", len(req.GetValue()), "subject", SubjectFromContext(ctx))
	return wrapperspb.String(saved), nil
}

func (s *GRPCServer) Exists(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	ok, err := s.storage.Exists(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return wrapperspb.Bool(ok), nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.storage.Delete(ctx, req.GetValue()); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	s.logger.Info(ctx, "Deleted", "name", req.GetValue(), "subject", SubjectFromContext(ctx))
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) URL(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(s.storage.URL(req.GetValue())), nil
}

func (s *GRPCServer) Size(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	size, err := s.storage.Size(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return wrapperspb.Int64(size), nil
}
