package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rentspace/messaging/internal/domain"
)

const HeaderUserID = "x-user-id"

// UnaryInterceptor reads the caller from x-user-id, which the gateway sets
// after verifying the token. Methods listed in exempt are service-to-service
// and run without a caller.
func UnaryInterceptor(exempt ...string) grpc.UnaryServerInterceptor {
	skip := make(map[string]struct{}, len(exempt))
	for _, m := range exempt {
		skip[m] = struct{}{}
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if _, ok := skip[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "metadata is not provided")
		}

		values := md.Get(HeaderUserID)
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "x-user-id header is missing")
		}
		userID := domain.NormalizeUserID(values[0])
		if userID == "" {
			return nil, status.Error(codes.Unauthenticated, "x-user-id header is missing")
		}

		return handler(InjectUserID(ctx, userID), req)
	}
}
