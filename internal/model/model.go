// Package model defines the core domain types shared across the fantasy
// contest engine. All monetary values use shopspring/decimal — never
// float64 for money. Point totals use decimal too, since the scoring
// formula rounds to exactly two decimal places.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contest types.
const (
	ContestDaily  = "daily"
	ContestWeekly = "weekly"
)

// Contest statuses.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// ContestRules holds the per-contest scoring and composition rules.
type ContestRules struct {
	CaptainMultiplier     decimal.Decimal `json:"captain_multiplier"`
	ViceCaptainMultiplier decimal.Decimal `json:"vice_captain_multiplier"`
	MaxPerSector          int             `json:"max_per_sector"`
}

// Contest is a time-boxed competition window with a budget and
// stock-count bounds. Immutable after creation except for the
// participants counter; Status is derived from the clock on read and
// is never trusted for acceptance decisions.
type Contest struct {
	ID           string          `json:"id" db:"id"`
	Type         string          `json:"type" db:"type"` // "daily" or "weekly"
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	StartTime    time.Time       `json:"start_time" db:"start_time"`
	EndTime      time.Time       `json:"end_time" db:"end_time"`
	Status       string          `json:"status" db:"status"`
	Budget       decimal.Decimal `json:"budget" db:"budget"`
	MinStocks    int             `json:"min_stocks" db:"min_stocks"`
	MaxStocks    int             `json:"max_stocks" db:"max_stocks"`
	EntryFee     decimal.Decimal `json:"entry_fee" db:"entry_fee"`
	PrizePool    string          `json:"prize_pool" db:"prize_pool"`
	Participants int             `json:"participants" db:"participants"`
	Rules        ContestRules    `json:"rules" db:"rules"`
}

// HeldStock is one position inside a submitted portfolio.
type HeldStock struct {
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Entry is one user's submitted portfolio for one contest. Keyed
// uniquely by (ContestID, UserID); resubmission overwrites in place.
// Only the Score field mutates after submission.
type Entry struct {
	ContestID     string          `json:"contest_id" db:"contest_id"`
	UserID        string          `json:"user_id" db:"user_id"`
	Stocks        []HeldStock     `json:"stocks" db:"stocks"`
	Captain       string          `json:"captain" db:"captain"`
	ViceCaptain   string          `json:"vice_captain" db:"vice_captain"`
	TotalInvested decimal.Decimal `json:"total_invested" db:"total_invested"`
	SubmittedAt   time.Time       `json:"submitted_at" db:"submitted_at"`
	Status        string          `json:"status" db:"status"`
	Score         decimal.Decimal `json:"score" db:"score"`

	// Contest is the parent contest's stored state at read time.
	// Populated only on user-entry reads, never persisted.
	Contest *Contest `json:"contest,omitempty" db:"-"`
}

// User holds the demo player's aggregate session stats.
type User struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	TotalPoints    decimal.Decimal `json:"total_points"`
	ContestsPlayed int             `json:"contests_played"`
	Wins           int             `json:"wins"`
}

// DefaultUserID identifies the single demo player.
const DefaultUserID = "user_001"

// DefaultUser returns a fresh demo player with the starting balance.
func DefaultUser() *User {
	return &User{
		ID:          DefaultUserID,
		Name:        "Player",
		Balance:     decimal.NewFromInt(1000000),
		TotalPoints: decimal.Zero,
	}
}
