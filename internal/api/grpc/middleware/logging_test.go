package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/sessionkeeper/internal/testutil"
)

func TestLogging_HandleGRPC(t *testing.T) {
	tests := []struct {
		name    string
		handler grpc.UnaryHandler
		wantLog []string
	}{
		{
			name: "success logs at debug",
			handler: func(ctx context.Context, req any) (any, error) {
				return "ok", nil
			},
			wantLog: []string{"level=DEBUG", "status=OK", "method=/grpc.health.v1.Health/Check"},
		},
		{
			name: "grpc status is kept",
			handler: func(ctx context.Context, req any) (any, error) {
				return nil, status.Error(codes.Unavailable, "db down")
			},
			wantLog: []string{"level=ERROR", "status=Unavailable"},
		},
		{
			name: "plain error is reported as internal",
			handler: func(ctx context.Context, req any) (any, error) {
				return nil, errors.New("boom")
			},
			wantLog: []string{"level=ERROR", "status=Internal", "error=boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := testutil.MakeBufferLogger()
			lg := NewLogging(log)

			info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
			want, wantErr := tt.handler(context.Background(), nil)
			resp, err := lg.HandleGRPC(context.Background(), nil, info, tt.handler)

			assert.Equal(t, want, resp)
			assert.Equal(t, status.Code(wantErr), status.Code(err))
			for _, w := range tt.wantLog {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

type fakeStream struct {
	grpc.ServerStream
}

func TestLogging_HandleGRPCStream(t *testing.T) {
	lg := NewLogging(testutil.MakeNoopLogger())
	info := &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch"}

	err := lg.HandleGRPCStream(nil, fakeStream{}, info, func(srv any, stream grpc.ServerStream) error {
		return status.Error(codes.Canceled, "client went away")
	})
	assert.Equal(t, codes.Canceled, status.Code(err))

	err = lg.HandleGRPCStream(nil, fakeStream{}, info, func(srv any, stream grpc.ServerStream) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestRecoveryOption(t *testing.T) {
	interceptor := recovery.UnaryServerInterceptor(RecoveryOption(testutil.MakeNoopLogger()))
	info := &grpc.UnaryServerInfo{FullMethod: "/svc/Panics"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}
