package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/stockfantasy/contest-engine/internal/model"
)

// CachedStore wraps a primary Store with a Redis read-through cache.
// Writes go to the primary store and invalidate affected keys; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateContest(ctx context.Context, c *model.Contest) error {
	if err := s.primary.CreateContest(ctx, c); err != nil {
		return err
	}
	s.cacheContest(ctx, c)
	return nil
}

func (s *CachedStore) IncrementParticipants(ctx context.Context, id string) error {
	if err := s.primary.IncrementParticipants(ctx, id); err != nil {
		return err
	}
	s.rdb.Del(ctx, contestKey(id))
	return nil
}

func (s *CachedStore) PutEntry(ctx context.Context, e *model.Entry) error {
	if err := s.primary.PutEntry(ctx, e); err != nil {
		return err
	}
	s.rdb.Del(ctx, contestEntriesKey(e.ContestID))
	return nil
}

func (s *CachedStore) UpdateEntryScore(ctx context.Context, contestID, userID string, score decimal.Decimal) error {
	if err := s.primary.UpdateEntryScore(ctx, contestID, userID, score); err != nil {
		return err
	}
	s.rdb.Del(ctx, contestEntriesKey(contestID))
	return nil
}

func (s *CachedStore) SaveUser(ctx context.Context, u *model.User) error {
	if err := s.primary.SaveUser(ctx, u); err != nil {
		return err
	}
	s.rdb.Del(ctx, userKey(u.ID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetContest(ctx context.Context, id string) (*model.Contest, error) {
	data, err := s.rdb.Get(ctx, contestKey(id)).Bytes()
	if err == nil {
		var c model.Contest
		if json.Unmarshal(data, &c) == nil {
			return &c, nil
		}
	}

	c, err := s.primary.GetContest(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheContest(ctx, c)
	return c, nil
}

func (s *CachedStore) ListEntriesByContest(ctx context.Context, contestID string) ([]model.Entry, error) {
	data, err := s.rdb.Get(ctx, contestEntriesKey(contestID)).Bytes()
	if err == nil {
		var entries []model.Entry
		if json.Unmarshal(data, &entries) == nil {
			return entries, nil
		}
	}

	entries, err := s.primary.ListEntriesByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entries); err == nil {
		s.rdb.Set(ctx, contestEntriesKey(contestID), data, s.ttl)
	}
	return entries, nil
}

func (s *CachedStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	data, err := s.rdb.Get(ctx, userKey(id)).Bytes()
	if err == nil {
		var u model.User
		if json.Unmarshal(data, &u) == nil {
			return &u, nil
		}
	}

	u, err := s.primary.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(u); err == nil {
		s.rdb.Set(ctx, userKey(id), data, s.ttl)
	}
	return u, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListContests(ctx context.Context) ([]model.Contest, error) {
	return s.primary.ListContests(ctx)
}

func (s *CachedStore) GetEntry(ctx context.Context, contestID, userID string) (*model.Entry, error) {
	return s.primary.GetEntry(ctx, contestID, userID)
}

func (s *CachedStore) ListEntriesByUser(ctx context.Context, userID string) ([]model.Entry, error) {
	return s.primary.ListEntriesByUser(ctx, userID)
}

// --- Cache helpers ---

func (s *CachedStore) cacheContest(ctx context.Context, c *model.Contest) {
	if data, err := json.Marshal(c); err == nil {
		s.rdb.Set(ctx, contestKey(c.ID), data, s.ttl)
	}
}

func contestKey(id string) string        { return fmt.Sprintf("contest:%s", id) }
func contestEntriesKey(id string) string { return fmt.Sprintf("contest-entries:%s", id) }
func userKey(id string) string           { return fmt.Sprintf("user:%s", id) }
