package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rentspace/messaging/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode codes.Code
	}{
		{
			name:     "Nil error",
			err:      nil,
			wantCode: codes.OK,
		},
		{
			name:     "Message not found",
			err:      domain.ErrNotFound,
			wantCode: codes.NotFound,
		},
		{
			name:     "Invalid argument wrapped",
			err:      fmt.Errorf("%w: body is required", domain.ErrInvalidArgument),
			wantCode: codes.InvalidArgument,
		},
		{
			name:     "Unauthenticated",
			err:      domain.ErrUnauthenticated,
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "Deadline",
			err:      fmt.Errorf("failed to list messages: %w", context.DeadlineExceeded),
			wantCode: codes.DeadlineExceeded,
		},
		{
			name:     "Already gRPC error",
			err:      status.Error(codes.AlreadyExists, "already exists"),
			wantCode: codes.AlreadyExists,
		},
		{
			name:     "Unknown error wrapped",
			err:      fmt.Errorf("failed to save message: %w", errors.New("disk full")),
			wantCode: codes.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotErr := MapError(tt.err)
			if tt.err == nil {
				if gotErr != nil {
					t.Errorf("MapError() = %v, want nil", gotErr)
				}
				return
			}

			st, ok := status.FromError(gotErr)
			if !ok {
				t.Errorf("MapError() did not return a gRPC status error")
				return
			}

			if st.Code() != tt.wantCode {
				t.Errorf("MapError() code = %v, want %v", st.Code(), tt.wantCode)
			}
		})
	}
}
