package contest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockfantasy/contest-engine/internal/metrics"
	"github.com/stockfantasy/contest-engine/internal/model"
	"github.com/stockfantasy/contest-engine/internal/scoring"
	"github.com/stockfantasy/contest-engine/internal/store"
)

// Validation and lookup errors. Messages are user-facing and their
// check order inside SubmitPortfolio is fixed: the first violated rule
// wins, so error messages are deterministic.
var (
	ErrContestNotFound      = errors.New("Contest not found")
	ErrContestEnded         = errors.New("Contest has ended")
	ErrBudgetExceeded       = errors.New("Budget exceeded")
	ErrCaptainNotInTeam     = errors.New("Captain must be in your team")
	ErrViceCaptainNotInTeam = errors.New("Vice Captain must be in your team")
	ErrSameCaptainVice      = errors.New("Captain and Vice Captain must be different")
)

// ValidationError marks a submission rejection whose message is built
// at runtime, so handlers can tell it apart from store failures.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Service owns contest entities, their entries, and leaderboard
// aggregation. All state flows through the injected Store; market data
// comes through the injected SnapshotSource.
type Service struct {
	store  store.Store
	source scoring.SnapshotSource
	hub    *Hub // optional, for real-time score broadcasts

	now func() time.Time
}

// NewService creates a contest service. Pass nil for hub if WebSocket
// broadcasting is not needed.
func NewService(st store.Store, source scoring.SnapshotSource, hub *Hub) *Service {
	return &Service{
		store:  st,
		source: source,
		hub:    hub,
		now:    time.Now,
	}
}

// CreateDailyContest creates and stores a fresh daily contest.
func (s *Service) CreateDailyContest(ctx context.Context) (*model.Contest, error) {
	c := NewDailyContest(s.now())
	if err := s.store.CreateContest(ctx, c); err != nil {
		return nil, err
	}
	metrics.ContestsCreated.WithLabelValues(model.ContestDaily).Inc()
	slog.Info("contest created", "id", c.ID, "type", c.Type, "ends", c.EndTime)
	return c, nil
}

// CreateWeeklyContest creates and stores a fresh weekly contest.
func (s *Service) CreateWeeklyContest(ctx context.Context) (*model.Contest, error) {
	c := NewWeeklyContest(s.now())
	if err := s.store.CreateContest(ctx, c); err != nil {
		return nil, err
	}
	metrics.ContestsCreated.WithLabelValues(model.ContestWeekly).Inc()
	slog.Info("contest created", "id", c.ID, "type", c.Type, "ends", c.EndTime)
	return c, nil
}

// ListActiveContests returns contests that are active and not yet past
// their end time, in creation order. Side-effect-free: when the set is
// empty it stays empty — default contests are synthesized by
// EnsureDefaultContests, not by this query.
func (s *Service) ListActiveContests(ctx context.Context) ([]model.Contest, error) {
	all, err := s.store.ListContests(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	active := make([]model.Contest, 0, len(all))
	for _, c := range all {
		if c.Status == model.StatusActive && c.EndTime.After(now) {
			active = append(active, c)
		}
	}
	return active, nil
}

// EnsureDefaultContests guarantees at least one daily and one weekly
// contest is open, creating them when none are active. Idempotent:
// while any contest is active it does nothing. Invoked at startup and
// on a schedule, never from read paths.
func (s *Service) EnsureDefaultContests(ctx context.Context) ([]model.Contest, error) {
	active, err := s.ListActiveContests(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return active, nil
	}

	daily, err := s.CreateDailyContest(ctx)
	if err != nil {
		return nil, err
	}
	weekly, err := s.CreateWeeklyContest(ctx)
	if err != nil {
		return nil, err
	}
	return []model.Contest{*daily, *weekly}, nil
}

// GetContest retrieves one contest with its status derived from the
// clock: a stored "active" past its end time reads as "ended".
func (s *Service) GetContest(ctx context.Context, id string) (*model.Contest, error) {
	c, err := s.store.GetContest(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}
	if s.now().After(c.EndTime) {
		c.Status = model.StatusEnded
	}
	return c, nil
}

// SubmitPortfolio validates and stores one user's portfolio for a
// contest. Validation short-circuits in a fixed order; acceptance
// re-checks the wall clock against end_time, never the stored status.
// A resubmission overwrites the prior entry in place and still
// increments the participants counter — resubmits therefore
// double-count participants (kept for compatibility with the existing
// game clients; see DESIGN.md).
func (s *Service) SubmitPortfolio(ctx context.Context, contestID, userID string, stocks []model.HeldStock, captain, viceCaptain string) (*model.Entry, error) {
	entry, err := s.submitPortfolio(ctx, contestID, userID, stocks, captain, viceCaptain)
	if err != nil {
		metrics.Submissions.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.Submissions.WithLabelValues("accepted").Inc()
	return entry, nil
}

func (s *Service) submitPortfolio(ctx context.Context, contestID, userID string, stocks []model.HeldStock, captain, viceCaptain string) (*model.Entry, error) {
	contest, err := s.store.GetContest(ctx, contestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, err
	}

	now := s.now()
	if contest.EndTime.Before(now) {
		return nil, ErrContestEnded
	}

	if len(stocks) < contest.MinStocks || len(stocks) > contest.MaxStocks {
		return nil, &ValidationError{fmt.Sprintf("Select between %d and %d stocks", contest.MinStocks, contest.MaxStocks)}
	}

	totalInvested := decimal.Zero
	for _, st := range stocks {
		totalInvested = totalInvested.Add(st.Price.Mul(st.Quantity))
	}
	if totalInvested.GreaterThan(contest.Budget) {
		return nil, ErrBudgetExceeded
	}

	symbols := make(map[string]bool, len(stocks))
	for _, st := range stocks {
		symbols[st.Symbol] = true
	}
	if !symbols[captain] {
		return nil, ErrCaptainNotInTeam
	}
	if !symbols[viceCaptain] {
		return nil, ErrViceCaptainNotInTeam
	}
	if captain == viceCaptain {
		return nil, ErrSameCaptainVice
	}

	entry := &model.Entry{
		ContestID:     contestID,
		UserID:        userID,
		Stocks:        stocks,
		Captain:       captain,
		ViceCaptain:   viceCaptain,
		TotalInvested: totalInvested,
		SubmittedAt:   now,
		Status:        model.StatusActive,
		Score:         decimal.Zero,
	}

	if err := s.store.PutEntry(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.store.IncrementParticipants(ctx, contestID); err != nil {
		return nil, err
	}

	// Session side effect: bump the player's contests-played counter.
	if u, err := s.store.GetUser(ctx, userID); err == nil {
		u.ContestsPlayed++
		if err := s.store.SaveUser(ctx, u); err != nil {
			slog.Warn("save user stats failed", "user", userID, "err", err)
		}
	}

	slog.Info("portfolio submitted",
		"contest", contestID,
		"user", userID,
		"stocks", len(stocks),
		"invested", totalInvested.String(),
		"captain", captain,
		"vice_captain", viceCaptain,
	)

	if s.hub != nil {
		s.hub.Broadcast(Message{
			Type:         "portfolio_submitted",
			ContestID:    contestID,
			UserID:       userID,
			Participants: contest.Participants + 1,
		})
	}

	return entry, nil
}

// LeaderboardRow is one ranked line of a contest leaderboard.
type LeaderboardRow struct {
	Rank        int             `json:"rank"`
	UserID      string          `json:"user_id"`
	Score       decimal.Decimal `json:"score"`
	StocksCount int             `json:"stocks_count"`
	Captain     string          `json:"captain"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// DefaultLeaderboardLimit caps leaderboard size when no limit is given.
const DefaultLeaderboardLimit = 20

// Leaderboard ranks a contest's entries by score descending. The sort
// is stable: tied scores keep their original encounter order. Ranks
// are 1-based after truncation to limit.
func (s *Service) Leaderboard(ctx context.Context, contestID string, limit int) (*model.Contest, []LeaderboardRow, error) {
	contest, err := s.GetContest(ctx, contestID)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.store.ListEntriesByContest(ctx, contestID)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, LeaderboardRow{
			UserID:      e.UserID,
			Score:       e.Score,
			StocksCount: len(e.Stocks),
			Captain:     e.Captain,
			SubmittedAt: e.SubmittedAt,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score.GreaterThan(rows[j].Score)
	})

	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}

	return contest, rows, nil
}

// UserEntries returns every entry a user has across all contests, each
// annotated with its parent contest's stored state at read time.
func (s *Service) UserEntries(ctx context.Context, userID string) ([]model.Entry, error) {
	entries, err := s.store.ListEntriesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if c, err := s.GetContest(ctx, entries[i].ContestID); err == nil {
			entries[i].Contest = c
		}
	}
	return entries, nil
}

// EntryScore is one entry's refreshed score.
type EntryScore struct {
	UserID string          `json:"user_id"`
	Score  decimal.Decimal `json:"score"`
	Tier   scoring.Tier    `json:"tier"`
}

// ScoreContest recomputes every entry's score in a contest against
// live market data and stores the results. Each entry is scored
// independently; a failing upstream fetch degrades that holding to a
// zero contribution rather than aborting the pass.
func (s *Service) ScoreContest(ctx context.Context, contestID string) ([]EntryScore, error) {
	if _, err := s.GetContest(ctx, contestID); err != nil {
		return nil, err
	}

	entries, err := s.store.ListEntriesByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	results := make([]EntryScore, 0, len(entries))
	for _, e := range entries {
		start := time.Now()
		result := scoring.ScorePortfolio(ctx, s.source, e.Stocks, e.Captain, e.ViceCaptain)
		metrics.ScoringDuration.Observe(time.Since(start).Seconds())
		metrics.EntriesScored.Inc()

		if err := s.store.UpdateEntryScore(ctx, contestID, e.UserID, result.TotalScore); err != nil {
			return nil, err
		}

		results = append(results, EntryScore{
			UserID: e.UserID,
			Score:  result.TotalScore,
			Tier:   scoring.RankPortfolio(result.TotalScore),
		})

		slog.Info("entry scored",
			"contest", contestID,
			"user", e.UserID,
			"score", result.TotalScore.String(),
		)

		if s.hub != nil {
			s.hub.Broadcast(Message{
				Type:      "entry_scored",
				ContestID: contestID,
				UserID:    e.UserID,
				Score:     result.TotalScore.String(),
			})
		}
	}

	return results, nil
}
