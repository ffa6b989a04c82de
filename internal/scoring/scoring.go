// Package scoring implements the fantasy points engine: it turns a
// stock's market snapshot into a point value, and a portfolio of
// snapshots plus a captain/vice-captain assignment into a total score
// with a per-stock diagnostic breakdown.
//
// Formula per stock:
//
//	base_score    = change_percent × 10 (rounded to 2 decimals)
//	volume_bonus  = 10 if volume > 1.5 × average volume, else 5 if
//	                volume > 1,000,000, else 0
//	sector_bonus  = 5 for technology/it/banking/financial services,
//	                3 for healthcare/pharma/fmcg, else 0
//	loss_penalty  = -10 if change < -4%, else -5 if change < -2%
//	total         = base_score + volume_bonus + sector_bonus + loss_penalty
//
// The captain's total is doubled and the vice-captain's multiplied
// by 1.5. All point arithmetic uses shopspring/decimal so the
// two-decimal rounding is exact.
package scoring

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockfantasy/contest-engine/internal/model"
)

// Roles assigned to portfolio holdings.
const (
	RoleCaptain     = "captain"
	RoleViceCaptain = "vice_captain"
	RoleRegular     = "regular"
)

var (
	ten            = decimal.NewFromInt(10)
	five           = decimal.NewFromInt(5)
	three          = decimal.NewFromInt(3)
	minusFive      = decimal.NewFromInt(-5)
	minusTen       = decimal.NewFromInt(-10)
	volumeSpike    = decimal.NewFromFloat(1.5)
	flatVolumeBar  = decimal.NewFromInt(1000000)
	mildLossBar    = decimal.NewFromInt(-2)
	severeLossBar  = decimal.NewFromInt(-4)
	captainMult    = decimal.NewFromFloat(2.0)
	viceMult       = decimal.NewFromFloat(1.5)
	regularMult    = decimal.NewFromFloat(1.0)
)

// Sectors that earn a bonus, keyed lowercase.
var (
	strongSectors = map[string]bool{
		"technology":         true,
		"it":                 true,
		"banking":            true,
		"financial services": true,
	}
	steadySectors = map[string]bool{
		"healthcare": true,
		"pharma":     true,
		"fmcg":       true,
	}
)

// Breakdown is the per-stock score decomposition. Ephemeral — computed
// fresh from a point-in-time snapshot, never persisted on its own.
type Breakdown struct {
	BaseScore   decimal.Decimal `json:"base_score"`
	VolumeBonus decimal.Decimal `json:"volume_bonus"`
	SectorBonus decimal.Decimal `json:"sector_bonus"`
	LossPenalty decimal.Decimal `json:"loss_penalty"`
	Total       decimal.Decimal `json:"total"`
	Error       string          `json:"error,omitempty"`
}

// StockScore is one holding's scored result inside a portfolio.
type StockScore struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Role          string          `json:"role"`
	Multiplier    decimal.Decimal `json:"multiplier"`
	Breakdown     Breakdown       `json:"breakdown"`
	BaseScore     decimal.Decimal `json:"base_score"`
	FinalScore    decimal.Decimal `json:"final_score"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// Result is the scored portfolio. Best and worst performers are
// tracked with strict comparisons, so the first holding seen at a
// tied score keeps the extremum.
type Result struct {
	TotalScore              decimal.Decimal `json:"total_score"`
	Stocks                  []StockScore    `json:"stocks"`
	CaptainContribution     decimal.Decimal `json:"captain_contribution"`
	ViceCaptainContribution decimal.Decimal `json:"vice_captain_contribution"`
	BestPerformer           *StockScore     `json:"best_performer"`
	WorstPerformer          *StockScore     `json:"worst_performer"`
}

// SnapshotSource provides market snapshots keyed by a stock's display
// name. The gateway implements this; tests substitute stubs.
type SnapshotSource interface {
	StockSnapshot(ctx context.Context, name string) (Snapshot, error)
}

// ScoreStock computes the breakdown for a single stock's snapshot.
// Pure and deterministic: identical snapshots always yield identical
// breakdowns. A snapshot parse error is surfaced on the breakdown
// without aborting; missing fields contribute zero.
func ScoreStock(snap Snapshot) Breakdown {
	var b Breakdown

	change := decimal.Zero
	if snap.ChangePercent != nil {
		change = *snap.ChangePercent
	}
	b.BaseScore = change.Mul(ten).Round(2)

	// Spike rule needs both volumes; without an average the flat
	// one-million bar is the only rule that can fire.
	switch {
	case snap.Volume != nil && snap.AvgVolume != nil &&
		snap.Volume.GreaterThan(snap.AvgVolume.Mul(volumeSpike)):
		b.VolumeBonus = ten
	case snap.Volume != nil && snap.Volume.GreaterThan(flatVolumeBar):
		b.VolumeBonus = five
	default:
		b.VolumeBonus = decimal.Zero
	}

	sector := strings.ToLower(snap.Sector)
	switch {
	case strongSectors[sector]:
		b.SectorBonus = five
	case steadySectors[sector]:
		b.SectorBonus = three
	default:
		b.SectorBonus = decimal.Zero
	}

	// Both thresholds are evaluated; the more severe penalty wins,
	// so a -5% change yields -10, not -5.
	switch {
	case change.LessThan(severeLossBar):
		b.LossPenalty = minusTen
	case change.LessThan(mildLossBar):
		b.LossPenalty = minusFive
	default:
		b.LossPenalty = decimal.Zero
	}

	b.Total = b.BaseScore.Add(b.VolumeBonus).Add(b.SectorBonus).Add(b.LossPenalty)
	b.Error = snap.Err
	return b
}

// ScorePortfolio scores every holding in input order against a fresh
// snapshot from source, applying the captain (2.0×) and vice-captain
// (1.5×) multipliers. The captain check takes priority; by caller
// contract captain ≠ vice-captain. A failed snapshot fetch degrades
// that holding to an empty snapshot (zero contribution) — it never
// aborts the rest of the portfolio.
func ScorePortfolio(ctx context.Context, source SnapshotSource, stocks []model.HeldStock, captainSymbol, viceCaptainSymbol string) Result {
	result := Result{
		TotalScore:              decimal.Zero,
		Stocks:                  make([]StockScore, 0, len(stocks)),
		CaptainContribution:     decimal.Zero,
		ViceCaptainContribution: decimal.Zero,
	}

	bestIdx, worstIdx := -1, -1
	var bestScore, worstScore decimal.Decimal

	for _, held := range stocks {
		name := held.Name
		if name == "" {
			name = held.Symbol
		}

		snap, err := source.StockSnapshot(ctx, name)
		if err != nil {
			snap = Snapshot{}
		}

		breakdown := ScoreStock(snap)

		multiplier := regularMult
		role := RoleRegular
		switch held.Symbol {
		case captainSymbol:
			multiplier = captainMult
			role = RoleCaptain
		case viceCaptainSymbol:
			multiplier = viceMult
			role = RoleViceCaptain
		}

		finalScore := breakdown.Total.Mul(multiplier).Round(2)

		price := decimal.Zero
		if snap.CurrentPrice != nil {
			price = *snap.CurrentPrice
		}
		change := decimal.Zero
		if snap.ChangePercent != nil {
			change = *snap.ChangePercent
		}

		result.Stocks = append(result.Stocks, StockScore{
			Symbol:        held.Symbol,
			Name:          name,
			Role:          role,
			Multiplier:    multiplier,
			Breakdown:     breakdown,
			BaseScore:     breakdown.Total,
			FinalScore:    finalScore,
			CurrentPrice:  price,
			ChangePercent: change,
		})
		result.TotalScore = result.TotalScore.Add(finalScore)

		switch role {
		case RoleCaptain:
			result.CaptainContribution = finalScore
		case RoleViceCaptain:
			result.ViceCaptainContribution = finalScore
		}

		idx := len(result.Stocks) - 1
		if bestIdx == -1 || finalScore.GreaterThan(bestScore) {
			bestIdx, bestScore = idx, finalScore
		}
		if worstIdx == -1 || finalScore.LessThan(worstScore) {
			worstIdx, worstScore = idx, finalScore
		}
	}

	if bestIdx >= 0 {
		result.BestPerformer = &result.Stocks[bestIdx]
		result.WorstPerformer = &result.Stocks[worstIdx]
	}

	result.TotalScore = result.TotalScore.Round(2)
	return result
}

// Tier is a named rank bucket derived from a total score.
type Tier struct {
	Tier  string `json:"tier"`
	Badge string `json:"badge"`
	Color string `json:"color"`
}

// Tier thresholds, highest first. Lower bounds are inclusive.
var tierLadder = []struct {
	floor decimal.Decimal
	tier  Tier
}{
	{decimal.NewFromInt(200), Tier{"Legendary", "🏆", "#FFD700"}},
	{decimal.NewFromInt(150), Tier{"Diamond", "💎", "#B9F2FF"}},
	{decimal.NewFromInt(100), Tier{"Gold", "🥇", "#FFD700"}},
	{decimal.NewFromInt(50), Tier{"Silver", "🥈", "#C0C0C0"}},
	{decimal.NewFromInt(0), Tier{"Bronze", "🥉", "#CD7F32"}},
}

var beginnerTier = Tier{"Beginner", "📚", "#808080"}

// RankPortfolio maps a total score onto its tier. Total over the
// reals: every score lands in exactly one bucket.
func RankPortfolio(score decimal.Decimal) Tier {
	for _, step := range tierLadder {
		if score.GreaterThanOrEqual(step.floor) {
			return step.tier
		}
	}
	return beginnerTier
}
