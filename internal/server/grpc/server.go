package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/scratchmap/internal/logging"
	"github.com/dmitrijs2005/scratchmap/internal/server/docstore"
	"github.com/dmitrijs2005/scratchmap/internal/server/users"
	"github.com/dmitrijs2005/scratchmap/internal/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type UserService interface {
	Register(ctx context.Context, username, password string) (*users.User, error)
	Login(ctx context.Context, username, password string) (userID, accessToken string, err error)
}

type DocumentService interface {
	Upsert(ctx context.Context, userID, collection, docID string, fields map[string]any, merge bool) error
	Delete(ctx context.Context, userID, collection, docID string) error
	Get(ctx context.Context, userID, collection, docID string) (*docstore.Document, error)
	Query(ctx context.Context, userID, collection string, f docstore.Filter) ([]docstore.Document, error)
}

type ImagePresigner interface {
	PresignImageUpload(ctx context.Context, userID, contentType, extension string) (uploadURL, objectURI string, err error)
}

type GRPCServer struct {
	address   string
	users     UserService
	documents DocumentService
	images    ImagePresigner
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, us UserService, ds DocumentService, images ImagePresigner, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		documents: ds,
		images:    images,
		jwtSecret: []byte(secretKey),
	}
}

// newServer builds the grpc.Server with the document store and health
// services registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.recoveryInterceptor,
		s.loggingInterceptor,
		s.accessTokenInterceptor,
	))

	transport.RegisterDocumentStoreServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(transport.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	<-stopped
	return nil
}

func (s *GRPCServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}
