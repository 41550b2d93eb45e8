package docstore

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"github.com/dmitrijs2005/scratchmap/internal/common"
)

type memKey struct {
	userID, collection string
}

// MemoryRepository keeps documents in process memory. Fields round-trip
// through JSON, as they do through jsonb.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[memKey]map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: map[memKey]map[string][]byte{}}
}

func (r *MemoryRepository) Upsert(_ context.Context, userID, collection, docID string, fields map[string]any, merge bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := memKey{userID, collection}
	coll := r.docs[k]
	if coll == nil {
		coll = map[string][]byte{}
		r.docs[k] = coll
	}

	next := map[string]any{}
	if cur, ok := coll[docID]; merge && ok {
		if err := json.Unmarshal(cur, &next); err != nil {
			return err
		}
	}
	for key, v := range fields {
		next[key] = v
	}
	b, err := json.Marshal(next)
	if err != nil {
		return err
	}
	coll[docID] = b
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID, collection, docID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs[memKey{userID, collection}], docID)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, userID, collection, docID string) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	raw, ok := r.docs[memKey{userID, collection}][docID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	return &Document{ID: docID, Fields: fields}, nil
}

func (r *MemoryRepository) Query(_ context.Context, userID, collection string, f Filter) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var want any
	if f.Field != "" {
		b, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &want); err != nil {
			return nil, err
		}
	}

	coll := r.docs[memKey{userID, collection}]
	ids := make([]string, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := []Document{}
	for _, id := range ids {
		fields, err := decodeFields(coll[id])
		if err != nil {
			return nil, err
		}
		if f.Field != "" && !reflect.DeepEqual(fields[f.Field], want) {
			continue
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	return docs, nil
}
