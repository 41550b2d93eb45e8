package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
	"github.com/dmitrijs2005/scratchmap/internal/server/auth"
	"github.com/dmitrijs2005/scratchmap/internal/server/docstore"
	"github.com/dmitrijs2005/scratchmap/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestServer(secret string) *GRPCServer {
	return NewGRPCServer("", logging.Nop(), nil, nil, nil, secret)
}

func withToken(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, token))
}

func TestAccessTokenInterceptor(t *testing.T) {
	s := newTestServer("secret")
	valid, err := auth.GenerateToken("u1", []byte("secret"), time.Hour)
	require.NoError(t, err)
	expired, err := auth.GenerateToken("u1", []byte("secret"), -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken("u1", []byte("other"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		method   string
		ctx      context.Context
		wantCode codes.Code
		wantUser string
	}{
		{"public without token", transport.LoginFullMethod, context.Background(), codes.OK, ""},
		{"health without token", "/grpc.health.v1.Health/Check", context.Background(), codes.OK, ""},
		{"private without token", transport.UpsertFullMethod, context.Background(), codes.Unauthenticated, ""},
		{"private with valid token", transport.UpsertFullMethod, withToken(valid), codes.OK, "u1"},
		{"expired token", transport.GetFullMethod, withToken(expired), codes.Unauthenticated, ""},
		{"wrong secret", transport.QueryFullMethod, withToken(foreign), codes.Unauthenticated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			h := func(ctx context.Context, req any) (any, error) {
				gotUser, _ = userIDFromContext(ctx)
				return "ok", nil
			}

			_, err := s.accessTokenInterceptor(tt.ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, h)
			assert.Equal(t, tt.wantCode, status.Code(err))
			assert.Equal(t, tt.wantUser, gotUser)
		})
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	s := newTestServer("secret")
	h := func(context.Context, any) (any, error) { panic("boom") }

	_, err := s.recoveryInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: transport.GetFullMethod}, h)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := newTestServer("secret")
	want := status.Error(codes.NotFound, "x")
	h := func(context.Context, any) (any, error) { return "resp", want }

	resp, err := s.loggingInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: transport.GetFullMethod}, h)
	assert.Equal(t, "resp", resp)
	assert.Equal(t, want, err)
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("%w: bad", common.ErrorValidation), codes.InvalidArgument},
		{common.ErrorNotFound, codes.NotFound},
		{common.ErrorUnauthorized, codes.Unauthenticated},
		{common.ErrTokenExpired, codes.Unauthenticated},
		{errNoUser, codes.Unauthenticated},
		{docstore.ErrForeignOwner, codes.PermissionDenied},
		{common.ErrorAlreadyExists, codes.AlreadyExists},
		{errors.New("db down"), codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(toStatus(tt.err)), tt.err.Error())
	}
	assert.Equal(t, "internal error", status.Convert(toStatus(errors.New("db down"))).Message())
}
