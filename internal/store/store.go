// Package store defines the persistence interface for the contest
// engine. Implementations include in-memory (the default — game state
// is process-lifetime), PostgreSQL (optional source of truth), and a
// Redis read-through cache wrapper.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/stockfantasy/contest-engine/internal/model"
)

// ErrNotFound is returned when a contest, entry, or user does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. The contest manager and scoring
// engine never touch storage directly except through it.
type Store interface {
	// --- Contest operations ---

	// CreateContest persists a new contest.
	CreateContest(ctx context.Context, c *model.Contest) error

	// GetContest retrieves a contest by its ID.
	GetContest(ctx context.Context, id string) (*model.Contest, error)

	// ListContests returns all contests in creation order.
	ListContests(ctx context.Context) ([]model.Contest, error)

	// IncrementParticipants bumps a contest's participants counter.
	IncrementParticipants(ctx context.Context, id string) error

	// --- Entry operations ---

	// PutEntry stores an entry, overwriting any prior entry for the
	// same (contest, user) key while keeping its encounter position.
	PutEntry(ctx context.Context, e *model.Entry) error

	// GetEntry retrieves one entry by (contest, user).
	GetEntry(ctx context.Context, contestID, userID string) (*model.Entry, error)

	// ListEntriesByContest returns a contest's entries in encounter order.
	ListEntriesByContest(ctx context.Context, contestID string) ([]model.Entry, error)

	// ListEntriesByUser returns a user's entries across all contests.
	ListEntriesByUser(ctx context.Context, userID string) ([]model.Entry, error)

	// UpdateEntryScore mutates the score field of a stored entry.
	UpdateEntryScore(ctx context.Context, contestID, userID string, score decimal.Decimal) error

	// --- User (session) operations ---

	// GetUser retrieves the player's session stats.
	GetUser(ctx context.Context, id string) (*model.User, error)

	// SaveUser stores the player's session stats.
	SaveUser(ctx context.Context, u *model.User) error
}
