// Package learning turns scoring results and live market data into
// educational insights for players. All content is advisory text; the
// package never mutates contest state.
package learning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockfantasy/contest-engine/internal/marketdata"
	"github.com/stockfantasy/contest-engine/internal/model"
	"github.com/stockfantasy/contest-engine/internal/scoring"
)

// Factor is one observation about a scored portfolio.
type Factor struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// PerformanceInsights explains why a portfolio scored the way it did.
type PerformanceInsights struct {
	Summary        string   `json:"summary"`
	KeyFactors     []Factor `json:"key_factors"`
	WhatWentWell   []string `json:"what_went_well"`
	AreasToImprove []string `json:"areas_to_improve"`
	MarketContext  string   `json:"market_context"`
	LearningTip    string   `json:"learning_tip"`
}

// SectorTrend counts how many trending stocks fall in one sector.
type SectorTrend struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// NewsItem is a trimmed headline for the insights feed.
type NewsItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Impact  string `json:"impact"`
}

// Module is a static learning module offered to players.
type Module struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Duration    string `json:"duration"`
}

// MarketInsights bundles live market context with learning content.
type MarketInsights struct {
	MarketMood      string        `json:"market_mood"`
	TrendingSectors []SectorTrend `json:"trending_sectors"`
	KeyNews         []NewsItem    `json:"key_news"`
	LearningModules []Module      `json:"learning_modules"`
}

// Tip is a short actionable suggestion for the next contest.
type Tip struct {
	Icon string `json:"icon"`
	Tip  string `json:"tip"`
}

// MetricExplanation decodes one financial metric for beginners.
type MetricExplanation struct {
	Metric      string `json:"metric"`
	Explanation string `json:"explanation"`
}

// StockContext is the educational brief for a single stock.
type StockContext struct {
	StockName           string              `json:"stock_name"`
	FunFacts            []string            `json:"fun_facts"`
	KeyMetricsExplained []MetricExplanation `json:"key_metrics_explained"`
	RiskFactors         []string            `json:"risk_factors"`
}

// Service produces learning content. The gateway supplies live market
// data; history supplies the player's past entries for tips.
type Service struct {
	gateway *marketdata.Gateway
	history EntryHistory
	logger  *slog.Logger
}

// EntryHistory provides a user's past contest entries.
type EntryHistory interface {
	UserEntries(ctx context.Context, userID string) ([]model.Entry, error)
}

func NewService(gateway *marketdata.Gateway, history EntryHistory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, history: history, logger: logger}
}

var (
	excellentBar = decimal.NewFromInt(100)
	solidBar     = decimal.NewFromInt(50)
)

// AnalyzePerformance explains a scored portfolio in plain language.
func AnalyzePerformance(result scoring.Result) PerformanceInsights {
	insights := PerformanceInsights{
		KeyFactors:     []Factor{},
		WhatWentWell:   []string{},
		AreasToImprove: []string{},
	}

	total := result.TotalScore
	switch {
	case total.GreaterThanOrEqual(excellentBar):
		insights.Summary = "🎉 Excellent Performance! Your stock selection was outstanding!"
	case total.GreaterThanOrEqual(solidBar):
		insights.Summary = "👍 Good job! You made some solid picks today."
	case total.GreaterThanOrEqual(decimal.Zero):
		insights.Summary = "📊 Average performance. Room for improvement!"
	default:
		insights.Summary = "📉 Tough day! Let's learn from this experience."
	}

	if best := result.BestPerformer; best != nil {
		detail := fmt.Sprintf("Contributed %s points", best.FinalScore)
		if best.Multiplier.GreaterThan(decimal.NewFromInt(1)) {
			detail += fmt.Sprintf(" with %sx multiplier", best.Multiplier)
		}
		insights.KeyFactors = append(insights.KeyFactors, Factor{
			Type:   "positive",
			Title:  "Star Performer: " + best.Name,
			Detail: detail,
		})
		insights.WhatWentWell = append(insights.WhatWentWell,
			fmt.Sprintf("Your %s %s delivered strong returns", best.Role, best.Name))
	}

	if worst := result.WorstPerformer; worst != nil && worst.FinalScore.IsNegative() {
		insights.KeyFactors = append(insights.KeyFactors, Factor{
			Type:   "negative",
			Title:  "Underperformer: " + worst.Name,
			Detail: fmt.Sprintf("Cost you %s points", worst.FinalScore.Abs()),
		})
		insights.AreasToImprove = append(insights.AreasToImprove,
			"Consider diversifying away from volatile stocks like "+worst.Name)
	}

	if result.CaptainContribution.IsPositive() {
		bonus := result.CaptainContribution.Div(decimal.NewFromInt(2)).Round(1)
		insights.WhatWentWell = append(insights.WhatWentWell,
			fmt.Sprintf("Great captain choice! Your 2x multiplier added %s bonus points", bonus))
	} else if result.CaptainContribution.IsNegative() {
		insights.AreasToImprove = append(insights.AreasToImprove,
			"Your captain pick underperformed. Choose more stable stocks for captain role")
	}

	sectorWinners := 0
	for _, stock := range result.Stocks {
		if stock.Breakdown.SectorBonus.IsPositive() {
			sectorWinners++
		}
	}
	if sectorWinners > 0 {
		insights.KeyFactors = append(insights.KeyFactors, Factor{
			Type:   "info",
			Title:  "Sector Strength",
			Detail: fmt.Sprintf("%d of your stocks benefited from sector momentum", sectorWinners),
		})
	}

	switch {
	case total.IsNegative():
		insights.LearningTip = "💡 Tip: Consider tracking sector trends before the market opens. " +
			"Global markets (US, Asia) often influence Indian market direction!"
	case total.LessThan(solidBar):
		insights.LearningTip = "💡 Tip: Diversify across sectors! Having all stocks in one sector " +
			"increases risk. Try mixing IT, Banking, and FMCG."
	default:
		insights.LearningTip = "💡 Tip: You're doing well! To level up, study why your best picks " +
			"performed well. Look for similar opportunities in other stocks."
	}

	return insights
}

type trendingPayload struct {
	TrendingStocks []struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
	} `json:"trendingStocks"`
}

type newsPayload []struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MarketInsights assembles trending-sector counts, top headlines and
// the static learning modules. Upstream failures degrade to empty
// sections rather than an error.
func (s *Service) MarketInsights(ctx context.Context) MarketInsights {
	insights := MarketInsights{
		MarketMood:      "neutral",
		TrendingSectors: []SectorTrend{},
		KeyNews:         []NewsItem{},
		LearningModules: learningModules(),
	}

	if raw, err := s.gateway.Trending(ctx); err != nil {
		s.logger.Warn("insights: trending unavailable", "err", err)
	} else {
		var payload trendingPayload
		if err := json.Unmarshal(raw, &payload); err == nil {
			insights.TrendingSectors = sectorCounts(payload)
		}
	}

	if raw, err := s.gateway.News(ctx); err != nil {
		s.logger.Warn("insights: news unavailable", "err", err)
	} else {
		var payload newsPayload
		if err := json.Unmarshal(raw, &payload); err == nil {
			for i, n := range payload {
				if i >= 3 {
					break
				}
				insights.KeyNews = append(insights.KeyNews, NewsItem{
					Title:   n.Title,
					Summary: truncate(n.Description, 150) + "...",
					Impact:  "neutral",
				})
			}
		}
	}

	return insights
}

func sectorCounts(payload trendingPayload) []SectorTrend {
	stocks := payload.TrendingStocks
	if len(stocks) > 5 {
		stocks = stocks[:5]
	}
	counts := map[string]int{}
	order := []string{}
	for _, stock := range stocks {
		sector := stock.Sector
		if sector == "" {
			sector = stock.Industry
		}
		if sector == "" {
			sector = "Unknown"
		}
		if _, seen := counts[sector]; !seen {
			order = append(order, sector)
		}
		counts[sector]++
	}

	trends := make([]SectorTrend, 0, len(order))
	for _, name := range order {
		trends = append(trends, SectorTrend{Name: name, Count: counts[name]})
	}
	sort.SliceStable(trends, func(i, j int) bool { return trends[i].Count > trends[j].Count })
	return trends
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// TipsForNextContest builds suggestions from a player's past entries.
// New players get the starter set.
func TipsForNextContest(history []model.Entry) []Tip {
	if len(history) == 0 {
		return []Tip{
			{Icon: "🎯", Tip: "Start with a balanced portfolio - mix of large caps and mid caps"},
			{Icon: "⭐", Tip: "Choose your captain wisely - pick a stock you have confidence in"},
			{Icon: "📰", Tip: "Check market news before selecting stocks - it can impact prices"},
		}
	}

	total := decimal.Zero
	for _, entry := range history {
		total = total.Add(entry.Score)
	}
	avg := total.Div(decimal.NewFromInt(int64(len(history))))

	var tips []Tip
	if avg.IsNegative() {
		tips = append(tips, Tip{Icon: "🔄", Tip: "Try diversifying more - don't put too much in one sector"})
	}
	if avg.LessThan(solidBar) {
		tips = append(tips, Tip{Icon: "📈", Tip: "Look for stocks with positive momentum - check the trending section"})
	}
	tips = append(tips, Tip{
		Icon: "🎓",
		Tip:  fmt.Sprintf("Your average score is %s. Keep learning to improve!", avg.Round(1)),
	})
	return tips
}

var largeCapBar = decimal.NewFromInt(50000)

// StockLearningContext builds the educational brief for one stock from
// its live details. Missing or malformed fields are simply skipped.
func (s *Service) StockLearningContext(ctx context.Context, name string) StockContext {
	sctx := StockContext{
		StockName:           name,
		FunFacts:            []string{},
		KeyMetricsExplained: []MetricExplanation{},
		RiskFactors:         []string{},
	}

	raw, err := s.gateway.StockDetails(ctx, name)
	if err != nil {
		s.logger.Warn("learning: stock details unavailable", "stock", name, "err", err)
		return sctx
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return sctx
	}

	if marketCap := firstString(data, "marketCap", "market_cap"); marketCap != "" {
		if strings.Contains(marketCap, "Cr") || parsedAbove(marketCap, largeCapBar) {
			sctx.KeyMetricsExplained = append(sctx.KeyMetricsExplained, MetricExplanation{
				Metric:      "Large Cap Stock",
				Explanation: "This is a large cap stock (₹50,000+ Cr market cap). These are typically more stable but may have slower growth.",
			})
		} else {
			sctx.KeyMetricsExplained = append(sctx.KeyMetricsExplained, MetricExplanation{
				Metric:      "Mid/Small Cap Stock",
				Explanation: "This is a mid or small cap stock. Higher growth potential but also higher volatility.",
			})
		}
	}

	if pe := firstString(data, "pe", "PE", "peRatio"); pe != "" {
		if val, err := decimal.NewFromString(strings.ReplaceAll(pe, ",", "")); err == nil {
			switch {
			case val.GreaterThan(decimal.NewFromInt(40)):
				sctx.KeyMetricsExplained = append(sctx.KeyMetricsExplained, MetricExplanation{
					Metric:      "P/E Ratio: " + pe,
					Explanation: "High P/E suggests investors expect high future growth. Could be overvalued or a growth stock.",
				})
			case val.LessThan(decimal.NewFromInt(15)):
				sctx.KeyMetricsExplained = append(sctx.KeyMetricsExplained, MetricExplanation{
					Metric:      "P/E Ratio: " + pe,
					Explanation: "Low P/E could mean undervalued stock or market concerns. Good for value investors.",
				})
			}
		}
	}

	sector := strings.ToLower(firstString(data, "sector", "industry"))
	switch {
	case strings.Contains(sector, "bank"):
		sctx.RiskFactors = append(sctx.RiskFactors, "Banking stocks are sensitive to RBI interest rate decisions")
	case strings.Contains(sector, "it"), strings.Contains(sector, "tech"):
		sctx.RiskFactors = append(sctx.RiskFactors, "IT stocks can be affected by US market movements and rupee value")
	case strings.Contains(sector, "pharma"):
		sctx.RiskFactors = append(sctx.RiskFactors, "Pharma stocks may be affected by regulatory approvals and patent expiries")
	}

	return sctx
}

// firstString returns the first present key rendered as a string.
func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := data[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return decimal.NewFromFloat(v).String()
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func parsedAbove(raw string, bar decimal.Decimal) bool {
	cleaned := strings.ReplaceAll(strings.ReplaceAll(raw, ",", ""), "Cr", "")
	val, err := decimal.NewFromString(strings.TrimSpace(cleaned))
	if err != nil {
		return false
	}
	return val.GreaterThan(bar)
}

func learningModules() []Module {
	return []Module{
		{ID: 1, Title: "Understanding P/E Ratio", Description: "Learn what Price-to-Earnings ratio tells you about a stock", Difficulty: "Beginner", Duration: "5 min"},
		{ID: 2, Title: "Reading Stock Charts", Description: "Basics of candlestick charts and trend lines", Difficulty: "Beginner", Duration: "10 min"},
		{ID: 3, Title: "Sector Rotation Strategy", Description: "How money flows between sectors during market cycles", Difficulty: "Intermediate", Duration: "15 min"},
		{ID: 4, Title: "Risk Management 101", Description: "Never put all eggs in one basket - diversification basics", Difficulty: "Beginner", Duration: "8 min"},
	}
}
