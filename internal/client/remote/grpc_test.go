package remote_test

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/dmitrijs2005/scratchmap/internal/client/remote"
	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubServer struct {
	mu     sync.Mutex
	tokens map[string]string
	upsert transport.UpsertRequest
	getErr error
}

func (s *stubServer) record(ctx context.Context, method string) {
	md, _ := metadata.FromIncomingContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	v := md.Get(common.AccessTokenHeaderName)
	if len(v) > 0 {
		s.tokens[method] = v[0]
	} else {
		s.tokens[method] = ""
	}
}

func (s *stubServer) token(method string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[method]
}

func (s *stubServer) Upsert(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	s.record(ctx, "Upsert")
	s.mu.Lock()
	defer s.mu.Unlock()
	return &emptypb.Empty{}, transport.Decode(in, &s.upsert)
}

func (s *stubServer) Delete(ctx context.Context, _ *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unauthenticated, "token expired")
}

func (s *stubServer) Get(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	var ref transport.DocRef
	_ = transport.Decode(in, &ref)
	if ref.DocID == "missing" {
		return transport.Encode(transport.GetResponse{})
	}
	return transport.Encode(transport.GetResponse{Found: true, Document: &transport.Document{ID: ref.DocID, Fields: map[string]any{"title": "X"}}})
}

func (s *stubServer) Query(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var q transport.QueryRequest
	_ = transport.Decode(in, &q)
	return transport.Encode(transport.QueryResponse{Documents: []transport.Document{
		{ID: "a", Fields: map[string]any{q.Field: q.Value}},
	}})
}

func (s *stubServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return transport.Encode(transport.RegisterResponse{UserID: "u1"})
}

func (s *stubServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	s.record(ctx, "Login")
	var c transport.Credentials
	_ = transport.Decode(in, &c)
	if c.Password != "pw" {
		return nil, status.Error(codes.Unauthenticated, "bad credentials")
	}
	return transport.Encode(transport.LoginResponse{UserID: "u1", AccessToken: "tok-1"})
}

func (s *stubServer) PresignImageUpload(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var r transport.PresignRequest
	_ = transport.Decode(in, &r)
	return transport.Encode(transport.PresignResponse{UploadURL: "http://put/x" + r.Extension, ObjectURI: "http://get/x" + r.Extension})
}

func startStub(t *testing.T) (*stubServer, *remote.GRPCStore) {
	t.Helper()
	stub := &stubServer{tokens: map[string]string{}}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	transport.RegisterDocumentStoreServer(srv, stub)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	s, err := remote.Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return stub, s
}

func TestGRPCStore_LoginSetsTokenForPrivateCalls(t *testing.T) {
	stub, s := startStub(t)
	ctx := context.Background()

	_, _, err := s.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, remote.ErrUnauthorized)

	uid, tok, err := s.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, "", stub.token("Login"), "public methods carry no token")

	require.NoError(t, s.Upsert(ctx, "pings", "a", map[string]any{"title": "X"}, false))
	assert.Equal(t, "tok-1", stub.token("Upsert"))
}

func TestGRPCStore_MergeStripsNil(t *testing.T) {
	stub, s := startStub(t)

	require.NoError(t, s.Upsert(context.Background(), "pings", "a", map[string]any{"title": "X", "imageUri": nil}, true))

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.True(t, stub.upsert.Merge)
	_, present := stub.upsert.Fields["imageUri"]
	assert.False(t, present)
}

func TestGRPCStore_GetQueryPresign(t *testing.T) {
	_, s := startStub(t)
	ctx := context.Background()

	doc, err := s.Get(ctx, "pings", "a")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "X", doc.Fields["title"])

	doc, err = s.Get(ctx, "pings", "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)

	docs, err := s.Query(ctx, "pings", remote.Where("userId", "u1"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "u1", docs[0].Fields["userId"])

	up, obj, err := s.PresignImageUpload(ctx, "image/jpeg", ".jpg")
	require.NoError(t, err)
	assert.Equal(t, "http://put/x.jpg", up)
	assert.Equal(t, "http://get/x.jpg", obj)

	uid, err := s.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)
}

func TestGRPCStore_ErrorMapping(t *testing.T) {
	stub, s := startStub(t)
	ctx := context.Background()

	require.ErrorIs(t, s.Delete(ctx, "pings", "a"), remote.ErrUnauthorized)

	stub.getErr = status.Error(codes.NotFound, "gone")
	doc, err := s.Get(ctx, "pings", "a")
	require.NoError(t, err)
	assert.Nil(t, doc)

	stub.getErr = status.Error(codes.Unavailable, "down")
	_, err = s.Get(ctx, "pings", "a")
	require.ErrorIs(t, err, remote.ErrUnavailable)

	stub.getErr = status.Error(codes.Internal, "boom")
	_, err = s.Get(ctx, "pings", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc error")
}
