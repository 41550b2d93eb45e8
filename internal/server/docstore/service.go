package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/scratchmap/internal/common"
)

// OwnerField is the document field naming the owning user.
const OwnerField = "userId"

// ErrForeignOwner is returned when a write names another user as owner.
var ErrForeignOwner = errors.New("document belongs to another user")

// Collections lists the collections clients may touch.
var Collections = map[string]struct{}{
	common.CollectionPings:     {},
	common.CollectionScratches: {},
}

// Service validates requests before they reach the repository. Document
// contents are otherwise opaque; clients parse them strictly on read.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validateRef(collection, docID string) error {
	if _, ok := Collections[collection]; !ok {
		return fmt.Errorf("%w: unknown collection %q", common.ErrorValidation, collection)
	}
	if docID == "" {
		return fmt.Errorf("%w: document id is required", common.ErrorValidation)
	}
	return nil
}

// Upsert stamps the owner on every write, so a merge that creates the
// document still leaves it findable by owner. Writes naming a different
// owner are rejected.
func (s *Service) Upsert(ctx context.Context, userID, collection, docID string, fields map[string]any, merge bool) error {
	if err := validateRef(collection, docID); err != nil {
		return err
	}
	if owner, ok := fields[OwnerField]; ok && owner != userID {
		return ErrForeignOwner
	}

	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	// rows are already partitioned by user, so the stored owner always
	// equals userID and a merge may stamp it as well
	out[OwnerField] = userID
	return s.repo.Upsert(ctx, userID, collection, docID, out, merge)
}

func (s *Service) Delete(ctx context.Context, userID, collection, docID string) error {
	if err := validateRef(collection, docID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, collection, docID)
}

func (s *Service) Get(ctx context.Context, userID, collection, docID string) (*Document, error) {
	if err := validateRef(collection, docID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID, collection, docID)
}

func (s *Service) Query(ctx context.Context, userID, collection string, f Filter) ([]Document, error) {
	if _, ok := Collections[collection]; !ok {
		return nil, fmt.Errorf("%w: unknown collection %q", common.ErrorValidation, collection)
	}
	return s.repo.Query(ctx, userID, collection, f)
}
