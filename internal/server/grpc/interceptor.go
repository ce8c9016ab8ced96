package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/dbfiles/internal/common"
	pb "github.com/dmitrijs2005/dbfiles/internal/proto"
	"github.com/dmitrijs2005/dbfiles/internal/server/auth"
)

type ctxKey string

const (
	SubjectKey   ctxKey = "subject"
	RequestIDKey ctxKey = "requestID"
)

// writeMethods require a valid access token.
var writeMethods = map[string]struct{}{
	pb.MethodSave:   {},
	pb.MethodDelete: {},
}

// SubjectFromContext returns the token subject set by the access token
// interceptor, or "".
func SubjectFromContext(ctx context.Context) string {
	v, _ := ctx.Value(SubjectKey).(string)
	return v
}

// RequestIDFromContext returns the id assigned by the logging interceptor.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

func firstMetadata(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if _, ok := writeMethods[info.FullMethod]; ok {

		accessToken := firstMetadata(ctx, common.AccessTokenHeaderName)
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		subject, err := auth.GetSubjectFromToken(accessToken, s.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				return nil, status.Error(codes.Unauthenticated, "token expired")
			}
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		ctx = context.WithValue(ctx, SubjectKey, subject)
	}

	return handler(ctx, req)
}

// loggingInterceptor assigns a request id (reusing the caller's x-request-id
// when present), echoes it in the response header and logs the outcome.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	requestID := firstMetadata(ctx, common.RequestIDHeaderName)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	_ = grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeaderName, requestID))

	start := time.Now()
	resp, err := handler(ctx, req)

	log := s.logger.With("request_id", requestID, "method", info.FullMethod)
	code := status.Code(err)
	args := []any{"code", code.String(), "duration", time.Since(start)}
	switch code {
	case codes.OK, codes.NotFound:
		log.Info(ctx, "request", args...)
	case codes.Internal, codes.Unknown:
		log.Error(ctx, "request", args...)
	default:
		log.Warn(ctx, "request", args...)
	}
	return resp, err
}
