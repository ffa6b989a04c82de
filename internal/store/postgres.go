package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stockfantasy/contest-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL. All monetary values
// are stored as NUMERIC for exact decimal precision; portfolio
// holdings are a JSONB column. Entries carry a serial position that
// survives resubmission upserts, preserving encounter order.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateContest(ctx context.Context, c *model.Contest) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contests (id, type, name, description, start_time, end_time, status,
		                       budget, min_stocks, max_stocks, entry_fee, prize_pool, participants,
		                       captain_multiplier, vice_captain_multiplier, max_per_sector)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::NUMERIC, $9, $10, $11::NUMERIC, $12, $13,
		         $14::NUMERIC, $15::NUMERIC, $16)`,
		c.ID, c.Type, c.Name, c.Description, c.StartTime, c.EndTime, c.Status,
		c.Budget.String(), c.MinStocks, c.MaxStocks, c.EntryFee.String(), c.PrizePool, c.Participants,
		c.Rules.CaptainMultiplier.String(), c.Rules.ViceCaptainMultiplier.String(), c.Rules.MaxPerSector,
	)
	return err
}

const contestColumns = `id, type, name, description, start_time, end_time, status,
	budget::TEXT, min_stocks, max_stocks, entry_fee::TEXT, prize_pool, participants,
	captain_multiplier::TEXT, vice_captain_multiplier::TEXT, max_per_sector`

func scanContest(row interface{ Scan(...any) error }) (*model.Contest, error) {
	var c model.Contest
	var budget, entryFee, capMult, viceMult string

	err := row.Scan(&c.ID, &c.Type, &c.Name, &c.Description, &c.StartTime, &c.EndTime, &c.Status,
		&budget, &c.MinStocks, &c.MaxStocks, &entryFee, &c.PrizePool, &c.Participants,
		&capMult, &viceMult, &c.Rules.MaxPerSector)
	if err != nil {
		return nil, err
	}

	c.Budget, _ = decimal.NewFromString(budget)
	c.EntryFee, _ = decimal.NewFromString(entryFee)
	c.Rules.CaptainMultiplier, _ = decimal.NewFromString(capMult)
	c.Rules.ViceCaptainMultiplier, _ = decimal.NewFromString(viceMult)
	return &c, nil
}

func (s *PostgresStore) GetContest(ctx context.Context, id string) (*model.Contest, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+contestColumns+` FROM contests WHERE id = $1`, id)
	c, err := scanContest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get contest %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get contest %s: %w", id, err)
	}
	return c, nil
}

func (s *PostgresStore) ListContests(ctx context.Context) ([]model.Contest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contestColumns+` FROM contests ORDER BY start_time, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contests []model.Contest
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, err
		}
		contests = append(contests, *c)
	}
	return contests, rows.Err()
}

func (s *PostgresStore) IncrementParticipants(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contests SET participants = participants + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contest %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) PutEntry(ctx context.Context, e *model.Entry) error {
	stocks, err := json.Marshal(e.Stocks)
	if err != nil {
		return fmt.Errorf("marshal stocks: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO entries (contest_id, user_id, stocks, captain, vice_captain,
		                      total_invested, submitted_at, status, score)
		 VALUES ($1, $2, $3::JSONB, $4, $5, $6::NUMERIC, $7, $8, $9::NUMERIC)
		 ON CONFLICT (contest_id, user_id) DO UPDATE SET
		   stocks = EXCLUDED.stocks,
		   captain = EXCLUDED.captain,
		   vice_captain = EXCLUDED.vice_captain,
		   total_invested = EXCLUDED.total_invested,
		   submitted_at = EXCLUDED.submitted_at,
		   status = EXCLUDED.status,
		   score = EXCLUDED.score`,
		e.ContestID, e.UserID, stocks, e.Captain, e.ViceCaptain,
		e.TotalInvested.String(), e.SubmittedAt, e.Status, e.Score.String(),
	)
	return err
}

const entryColumns = `contest_id, user_id, stocks, captain, vice_captain,
	total_invested::TEXT, submitted_at, status, score::TEXT`

func scanEntry(row interface{ Scan(...any) error }) (*model.Entry, error) {
	var e model.Entry
	var stocks []byte
	var invested, score string

	err := row.Scan(&e.ContestID, &e.UserID, &stocks, &e.Captain, &e.ViceCaptain,
		&invested, &e.SubmittedAt, &e.Status, &score)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(stocks, &e.Stocks); err != nil {
		return nil, fmt.Errorf("unmarshal stocks: %w", err)
	}
	e.TotalInvested, _ = decimal.NewFromString(invested)
	e.Score, _ = decimal.NewFromString(score)
	return &e, nil
}

func (s *PostgresStore) GetEntry(ctx context.Context, contestID, userID string) (*model.Entry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE contest_id = $1 AND user_id = $2`,
		contestID, userID)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get entry %s/%s: %w", contestID, userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s/%s: %w", contestID, userID, err)
	}
	return e, nil
}

func (s *PostgresStore) ListEntriesByContest(ctx context.Context, contestID string) ([]model.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE contest_id = $1 ORDER BY pos`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (s *PostgresStore) ListEntriesByUser(ctx context.Context, userID string) ([]model.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE user_id = $1 ORDER BY pos`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (s *PostgresStore) UpdateEntryScore(ctx context.Context, contestID, userID string, score decimal.Decimal) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE entries SET score = $3::NUMERIC WHERE contest_id = $1 AND user_id = $2`,
		contestID, userID, score.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %s/%s: %w", contestID, userID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	var balance, points string

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, balance::TEXT, total_points::TEXT, contests_played, wins
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &balance, &points, &u.ContestsPlayed, &u.Wins)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	u.Balance, _ = decimal.NewFromString(balance)
	u.TotalPoints, _ = decimal.NewFromString(points)
	return &u, nil
}

func (s *PostgresStore) SaveUser(ctx context.Context, u *model.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, name, balance, total_points, contests_played, wins)
		 VALUES ($1, $2, $3::NUMERIC, $4::NUMERIC, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   balance = EXCLUDED.balance,
		   total_points = EXCLUDED.total_points,
		   contests_played = EXCLUDED.contests_played,
		   wins = EXCLUDED.wins`,
		u.ID, u.Name, u.Balance.String(), u.TotalPoints.String(), u.ContestsPlayed, u.Wins,
	)
	return err
}

type pgRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectEntries(rows pgRows) ([]model.Entry, error) {
	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
