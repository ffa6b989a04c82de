package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/stockfantasy/contest-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. This is the
// default backend: all game state is process-lifetime. Entries keep
// their encounter order, which the leaderboard's stable sort and
// resubmission semantics depend on.
type MemoryStore struct {
	mu           sync.RWMutex
	contests     map[string]*model.Contest
	contestOrder []string
	entries      []*model.Entry
	entryIndex   map[string]int // entryKey → position in entries
	users        map[string]*model.User
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contests:   make(map[string]*model.Contest),
		entryIndex: make(map[string]int),
		users:      make(map[string]*model.User),
	}
}

func entryKey(contestID, userID string) string {
	return contestID + ":" + userID
}

func (s *MemoryStore) CreateContest(_ context.Context, c *model.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contests[c.ID]; exists {
		return fmt.Errorf("contest %s already exists", c.ID)
	}

	// Store a copy to avoid external mutation.
	cp := *c
	s.contests[c.ID] = &cp
	s.contestOrder = append(s.contestOrder, c.ID)
	return nil
}

func (s *MemoryStore) GetContest(_ context.Context, id string) (*model.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contests[id]
	if !ok {
		return nil, fmt.Errorf("contest %s: %w", id, ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListContests(_ context.Context) ([]model.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contests := make([]model.Contest, 0, len(s.contestOrder))
	for _, id := range s.contestOrder {
		contests = append(contests, *s.contests[id])
	}
	return contests, nil
}

func (s *MemoryStore) IncrementParticipants(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contests[id]
	if !ok {
		return fmt.Errorf("contest %s: %w", id, ErrNotFound)
	}
	c.Participants++
	return nil
}

func (s *MemoryStore) PutEntry(_ context.Context, e *model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	cp.Contest = nil // annotation is read-time only
	cp.Stocks = append([]model.HeldStock(nil), e.Stocks...)

	key := entryKey(e.ContestID, e.UserID)
	if idx, ok := s.entryIndex[key]; ok {
		s.entries[idx] = &cp // overwrite in place, position kept
		return nil
	}
	s.entries = append(s.entries, &cp)
	s.entryIndex[key] = len(s.entries) - 1
	return nil
}

func (s *MemoryStore) GetEntry(_ context.Context, contestID, userID string) (*model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.entryIndex[entryKey(contestID, userID)]
	if !ok {
		return nil, fmt.Errorf("entry %s/%s: %w", contestID, userID, ErrNotFound)
	}
	return copyEntry(s.entries[idx]), nil
}

func (s *MemoryStore) ListEntriesByContest(_ context.Context, contestID string) ([]model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Entry
	for _, e := range s.entries {
		if e.ContestID == contestID {
			result = append(result, *copyEntry(e))
		}
	}
	return result, nil
}

func (s *MemoryStore) ListEntriesByUser(_ context.Context, userID string) ([]model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Entry
	for _, e := range s.entries {
		if e.UserID == userID {
			result = append(result, *copyEntry(e))
		}
	}
	return result, nil
}

func (s *MemoryStore) UpdateEntryScore(_ context.Context, contestID, userID string, score decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.entryIndex[entryKey(contestID, userID)]
	if !ok {
		return fmt.Errorf("entry %s/%s: %w", contestID, userID, ErrNotFound)
	}
	s.entries[idx].Score = score
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) SaveUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func copyEntry(e *model.Entry) *model.Entry {
	cp := *e
	cp.Stocks = append([]model.HeldStock(nil), e.Stocks...)
	return &cp
}
