package transport

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encode converts any JSON-serializable value into a Struct. Values go
// through encoding/json first so that typed slices and nested structs end up
// in the generic shapes structpb accepts.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return s, nil
}

// Decode fills v from a Struct.
func Decode(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// UpsertRequest writes a document. With Merge set, only the given fields are
// overwritten; otherwise the document is replaced.
type UpsertRequest struct {
	Collection string         `json:"collection"`
	DocID      string         `json:"docId"`
	Fields     map[string]any `json:"fields"`
	Merge      bool           `json:"merge"`
}

type DocRef struct {
	Collection string `json:"collection"`
	DocID      string `json:"docId"`
}

type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type GetResponse struct {
	Found    bool      `json:"found"`
	Document *Document `json:"document,omitempty"`
}

// QueryRequest selects documents of a collection, optionally restricted to
// those whose top-level Field equals Value.
type QueryRequest struct {
	Collection string `json:"collection"`
	Field      string `json:"field,omitempty"`
	Value      any    `json:"value,omitempty"`
}

type QueryResponse struct {
	Documents []Document `json:"documents"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"userId"`
}

type LoginResponse struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken"`
}

type PresignRequest struct {
	ContentType string `json:"contentType"`
	Extension   string `json:"extension"`
}

type PresignResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectURI string `json:"objectUri"`
}
