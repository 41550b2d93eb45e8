package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GRPCStore talks to the scratchmap.v1.DocumentStore service.
type GRPCStore struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *transport.DocumentStoreClient

	mu          sync.RWMutex
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

func (s *GRPCStore) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if _, public := transport.PublicMethods[method]; !public {
		if token := s.AccessToken(); token != "" {
			ctx = withAccessToken(ctx, token)
		}
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// Dial creates a lazily connecting client. Extra options are appended to
// the defaults (insecure transport, snappy compression, token interceptor).
func Dial(endpointURL string, extra ...grpc.DialOption) (*GRPCStore, error) {
	s := &GRPCStore{endpointURL: endpointURL}

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.UseCompressor(transport.CompressorName)),
	}, extra...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	s.client = transport.NewDocumentStoreClient(conn)
	return s, nil
}

// Conn exposes the connection for health probing.
func (s *GRPCStore) Conn() *grpc.ClientConn { return s.conn }

func (s *GRPCStore) Close() error { return s.conn.Close() }

func (s *GRPCStore) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCStore) Upsert(ctx context.Context, collection, docID string, fields map[string]any, merge bool) error {
	if merge {
		fields = StripNil(fields)
	}
	in, err := transport.Encode(transport.UpsertRequest{Collection: collection, DocID: docID, Fields: fields, Merge: merge})
	if err != nil {
		return err
	}
	if _, err := s.client.Upsert(ctx, in); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCStore) Delete(ctx context.Context, collection, docID string) error {
	in, err := transport.Encode(transport.DocRef{Collection: collection, DocID: docID})
	if err != nil {
		return err
	}
	if _, err := s.client.Delete(ctx, in); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCStore) Get(ctx context.Context, collection, docID string) (*Document, error) {
	in, err := transport.Encode(transport.DocRef{Collection: collection, DocID: docID})
	if err != nil {
		return nil, err
	}
	out, err := s.client.Get(ctx, in)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, s.mapError(err)
	}

	var resp transport.GetResponse
	if err := transport.Decode(out, &resp); err != nil {
		return nil, err
	}
	if !resp.Found || resp.Document == nil {
		return nil, nil
	}
	return &Document{ID: resp.Document.ID, Fields: resp.Document.Fields}, nil
}

func (s *GRPCStore) Query(ctx context.Context, collection string, f Filter) ([]Document, error) {
	in, err := transport.Encode(transport.QueryRequest{Collection: collection, Field: f.Field, Value: f.Value})
	if err != nil {
		return nil, err
	}
	out, err := s.client.Query(ctx, in)
	if err != nil {
		return nil, s.mapError(err)
	}

	var resp transport.QueryResponse
	if err := transport.Decode(out, &resp); err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		docs = append(docs, Document{ID: d.ID, Fields: d.Fields})
	}
	return docs, nil
}

func (s *GRPCStore) Register(ctx context.Context, username, password string) (string, error) {
	in, err := transport.Encode(transport.Credentials{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	out, err := s.client.Register(ctx, in)
	if err != nil {
		return "", s.mapError(err)
	}
	var resp transport.RegisterResponse
	if err := transport.Decode(out, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// Login authenticates and keeps the issued token for subsequent calls.
func (s *GRPCStore) Login(ctx context.Context, username, password string) (userID, accessToken string, err error) {
	in, err := transport.Encode(transport.Credentials{Username: username, Password: password})
	if err != nil {
		return "", "", err
	}
	out, err := s.client.Login(ctx, in)
	if err != nil {
		return "", "", s.mapError(err)
	}
	var resp transport.LoginResponse
	if err := transport.Decode(out, &resp); err != nil {
		return "", "", err
	}
	s.SetAccessToken(resp.AccessToken)
	return resp.UserID, resp.AccessToken, nil
}

func (s *GRPCStore) PresignImageUpload(ctx context.Context, contentType, extension string) (uploadURL, objectURI string, err error) {
	in, err := transport.Encode(transport.PresignRequest{ContentType: contentType, Extension: extension})
	if err != nil {
		return "", "", err
	}
	out, err := s.client.PresignImageUpload(ctx, in)
	if err != nil {
		return "", "", s.mapError(err)
	}
	var resp transport.PresignResponse
	if err := transport.Decode(out, &resp); err != nil {
		return "", "", err
	}
	return resp.UploadURL, resp.ObjectURI, nil
}

func (s *GRPCStore) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
