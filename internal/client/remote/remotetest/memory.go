// Package remotetest provides an in-memory remote.Store for tests.
package remotetest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/dmitrijs2005/scratchmap/internal/client/remote"
)

// Call records one operation issued against Memory.
type Call struct {
	Op         string
	Collection string
	DocID      string
	Merge      bool
}

// Memory is a thread-safe remote.Store. Documents round-trip through JSON so
// that callers observe the same generic shapes a real transport produces.
type Memory struct {
	mu    sync.Mutex
	docs  map[string]map[string]map[string]any
	calls []Call

	// FailUpsert, when set, is consulted before every upsert.
	FailUpsert func(collection, docID string) error
	// FailQuery, when set, is returned by Query.
	FailQuery error
	// FailGet, when set, is returned by Get.
	FailGet error
}

func NewMemory() *Memory {
	return &Memory{docs: map[string]map[string]map[string]any{}}
}

func normalize(fields map[string]any) map[string]any {
	b, err := json.Marshal(fields)
	if err != nil {
		panic(err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return out
}

func (m *Memory) Upsert(_ context.Context, collection, docID string, fields map[string]any, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "upsert", Collection: collection, DocID: docID, Merge: merge})

	if m.FailUpsert != nil {
		if err := m.FailUpsert(collection, docID); err != nil {
			return err
		}
	}

	coll := m.docs[collection]
	if coll == nil {
		coll = map[string]map[string]any{}
		m.docs[collection] = coll
	}

	if merge {
		fields = remote.StripNil(fields)
		cur := coll[docID]
		if cur == nil {
			cur = map[string]any{}
		}
		for k, v := range normalize(fields) {
			cur[k] = v
		}
		coll[docID] = cur
		return nil
	}
	coll[docID] = normalize(fields)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "delete", Collection: collection, DocID: docID})
	delete(m.docs[collection], docID)
	return nil
}

func (m *Memory) Get(_ context.Context, collection, docID string) (*remote.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "get", Collection: collection, DocID: docID})
	if m.FailGet != nil {
		return nil, m.FailGet
	}
	f, ok := m.docs[collection][docID]
	if !ok {
		return nil, nil
	}
	return &remote.Document{ID: docID, Fields: normalize(f)}, nil
}

func (m *Memory) Query(_ context.Context, collection string, f remote.Filter) ([]remote.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "query", Collection: collection})
	if m.FailQuery != nil {
		return nil, m.FailQuery
	}

	ids := make([]string, 0, len(m.docs[collection]))
	for id := range m.docs[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []remote.Document
	for _, id := range ids {
		fields := m.docs[collection][id]
		if f.Match(fields) {
			out = append(out, remote.Document{ID: id, Fields: normalize(fields)})
		}
	}
	return out, nil
}

// Put seeds a document directly, bypassing call recording and failures.
func (m *Memory) Put(collection, docID string, fields map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[collection] == nil {
		m.docs[collection] = map[string]map[string]any{}
	}
	m.docs[collection][docID] = normalize(fields)
}

// Doc returns a copy of a stored document, or nil.
func (m *Memory) Doc(collection, docID string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.docs[collection][docID]
	if !ok {
		return nil
	}
	return normalize(f)
}

// IDs lists the document ids of a collection in sorted order.
func (m *Memory) IDs(collection string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.docs[collection]))
	for id := range m.docs[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *Memory) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
