// Package grpc exposes the storage facade as the dbfiles.v1.Storage service.
package grpc

import (
	"context"
	"errors"
	"io"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/dbfiles/internal/logging"
	pb "github.com/dmitrijs2005/dbfiles/internal/proto"
	"github.com/dmitrijs2005/dbfiles/internal/server/services"
)

// StorageService is the subset of services.Storage served over gRPC.
type StorageService interface {
	Open(ctx context.Context, name string) (*services.File, error)
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
	Size(ctx context.Context, name string) (int64, error)
}

type GRPCServer struct {
	address        string
	storage        StorageService
	logger         logging.Logger
	jwtSecret      []byte
	maxMessageSize int
}

var _ pb.StorageServer = (*GRPCServer)(nil)

// NewGRPCServer builds a server listening on address. maxMessageSize bounds
// request and response messages and so the largest file that can be moved.
func NewGRPCServer(address string, l logging.Logger, storage StorageService, secretKey string, maxMessageSize int) (*GRPCServer, error) {
	if storage == nil {
		return nil, errors.New("grpc server: storage is required")
	}
	return &GRPCServer{
		address:        address,
		storage:        storage,
		logger:         l.With("module", "grpc_server"),
		jwtSecret:      []byte(secretKey),
		maxMessageSize: maxMessageSize,
	}, nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
	}
	if s.maxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(s.maxMessageSize),
			grpc.MaxSendMsgSize(s.maxMessageSize),
		)
	}
	srv := grpc.NewServer(opts...)
	pb.RegisterStorageServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	return nil
}
