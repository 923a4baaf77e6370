package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"dotrip/internal/domain/models"
)

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryStore keeps wizard state in process. States are stored encoded so
// callers never share a pointer.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, data: map[string]memoryEntry{}}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*models.WizardState, error) {
	s.mu.Lock()
	e, ok := s.data[sessionID]
	if ok && !s.now().Before(e.expiresAt) {
		delete(s.data, sessionID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrStateNotFound
	}
	var st models.WizardState
	if err := json.Unmarshal(e.raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *MemoryStore) Save(_ context.Context, state *models.WizardState) error {
	state.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[state.SessionID] = memoryEntry{raw: raw, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// Sweep drops expired entries and reports how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.data {
		if !now.Before(e.expiresAt) {
			delete(s.data, id)
			n++
		}
	}
	return n
}
