package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/server/docstore"
	"github.com/dmitrijs2005/scratchmap/internal/transport"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStatus maps service errors onto gRPC codes. Unknown errors are hidden
// behind a generic message.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, errNoUser):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, docstore.ErrForeignOwner):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func decode(in *structpb.Struct, v any) error {
	if err := transport.Decode(in, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := transport.Encode(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *GRPCServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req transport.Credentials
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	user, err := s.users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "username", user.UserName)
	return encode(transport.RegisterResponse{UserID: user.ID})
}

func (s *GRPCServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req transport.Credentials
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	userID, token, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	return encode(transport.LoginResponse{UserID: userID, AccessToken: token})
}

func (s *GRPCServer) Upsert(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req transport.UpsertRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	if err := s.documents.Upsert(ctx, userID, req.Collection, req.DocID, req.Fields, req.Merge); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req transport.DocRef
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	if err := s.documents.Delete(ctx, userID, req.Collection, req.DocID); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// Get answers a missing document with Found unset rather than NotFound.
func (s *GRPCServer) Get(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req transport.DocRef
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	doc, err := s.documents.Get(ctx, userID, req.Collection, req.DocID)
	if errors.Is(err, common.ErrorNotFound) {
		return encode(transport.GetResponse{})
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(transport.GetResponse{
		Found:    true,
		Document: &transport.Document{ID: doc.ID, Fields: doc.Fields},
	})
}

func (s *GRPCServer) Query(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req transport.QueryRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	docs, err := s.documents.Query(ctx, userID, req.Collection, docstore.Filter{Field: req.Field, Value: req.Value})
	if err != nil {
		return nil, toStatus(err)
	}

	out := transport.QueryResponse{Documents: make([]transport.Document, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, transport.Document{ID: d.ID, Fields: d.Fields})
	}
	return encode(out)
}

func (s *GRPCServer) PresignImageUpload(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if s.images == nil {
		return nil, status.Error(codes.Unimplemented, "image uploads are not configured")
	}
	var req transport.PresignRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	uploadURL, objectURI, err := s.images.PresignImageUpload(ctx, userID, req.ContentType, req.Extension)
	if err != nil {
		s.logger.Error(ctx, "presign failed", "error", err)
		return nil, toStatus(err)
	}
	return encode(transport.PresignResponse{UploadURL: uploadURL, ObjectURI: objectURI})
}
