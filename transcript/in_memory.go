package transcript

import "sync"

// InMemoryStore keeps transcripts in a nested map guarded by an RWMutex.
// Slices are copied on save and retrieval so callers cannot mutate stored
// transcripts.
//
// Layout: sessionID -> transcriptID -> transcript
type InMemoryStore struct {
	mu          sync.RWMutex
	transcripts map[string]map[string]Transcript
}

// NewInMemoryStore returns an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{transcripts: make(map[string]map[string]Transcript)}
}

// Save stores (or overwrites) a transcript.
func (s *InMemoryStore) Save(t Transcript) (Transcript, error) {
	t, err := prepare(t)
	if err != nil {
		return Transcript{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transcripts[t.SessionID]; !exists {
		s.transcripts[t.SessionID] = make(map[string]Transcript)
	}
	s.transcripts[t.SessionID][t.ID] = t
	return t.clone(), nil
}

// Get returns a copy of the stored transcript or ErrNotFound.
func (s *InMemoryStore) Get(sessionID, id string) (Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transcripts[sessionID][id]
	if !ok {
		return Transcript{}, ErrNotFound
	}
	return t.clone(), nil
}

// List returns copies of a session's transcripts, oldest first.
func (s *InMemoryStore) List(sessionID string) ([]Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.transcripts[sessionID]
	out := make([]Transcript, 0, len(m))
	for _, t := range m {
		out = append(out, t.clone())
	}
	sortByEnd(out)
	return out, nil
}

// Delete removes the transcript if present or returns ErrNotFound.
func (s *InMemoryStore) Delete(sessionID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.transcripts[sessionID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[id]; !ok {
		return ErrNotFound
	}
	delete(m, id)
	if len(m) == 0 {
		delete(s.transcripts, sessionID)
	}
	return nil
}
