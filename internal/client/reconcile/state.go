package reconcile

import "sync"

const (
	CollectionDiscoveries = "discoveries"
	CollectionScratches   = "scratches"
)

// State tracks, per collection, whether local mutations have not been
// pushed yet. It lives in memory only.
type State struct {
	mu    sync.Mutex
	dirty map[string]bool
}

func NewState() *State {
	return &State{dirty: map[string]bool{}}
}

func (s *State) MarkDirty(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[collection] = true
}

func (s *State) Clear(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirty, collection)
}

func (s *State) Dirty(collection string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty[collection]
}
