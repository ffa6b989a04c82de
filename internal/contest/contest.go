// Package contest implements the contest lifecycle: creation of daily
// and weekly contests, portfolio submission and validation, score
// refresh against live market data, and leaderboard aggregation.
package contest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockfantasy/contest-engine/internal/model"
)

// Market close, local time.
const (
	closeHour   = 15
	closeMinute = 30
)

var contestBudget = decimal.NewFromInt(1000000)

// newContestID generates an opaque unique contest token, e.g. CTX-9F2A41C7.
func newContestID() string {
	u := uuid.New()
	return fmt.Sprintf("CTX-%X", u[:4])
}

// NextDailyClose returns the end time for a daily contest created at
// now: today's market close, rolled to tomorrow once the close has
// passed. The hour and minute hands are compared independently, so
// 16:05 does not roll (minute hand below 30) while 15:45 does.
func NextDailyClose(now time.Time) time.Time {
	end := time.Date(now.Year(), now.Month(), now.Day(), closeHour, closeMinute, 0, 0, now.Location())
	if now.Hour() >= closeHour && now.Minute() >= closeMinute {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// NextWeeklyClose returns the end time for a weekly contest created at
// now: the upcoming Friday's market close. Today counts as zero days
// ahead, except a Friday at 15:00 or later rolls a full week.
func NextWeeklyClose(now time.Time) time.Time {
	daysUntilFriday := (int(time.Friday) - int(now.Weekday()) + 7) % 7
	if daysUntilFriday == 0 && now.Hour() >= closeHour {
		daysUntilFriday = 7
	}
	end := now.AddDate(0, 0, daysUntilFriday)
	return time.Date(end.Year(), end.Month(), end.Day(), closeHour, closeMinute, 0, 0, now.Location())
}

// weekOfYear counts Monday-based weeks from the start of the year.
// Days before the year's first Monday fall in week 0, so it can differ
// from ISOWeek by one for most dates.
func weekOfYear(t time.Time) int {
	yday := t.YearDay() - 1
	wday := (int(t.Weekday()) + 6) % 7
	return (yday + 7 - wday) / 7
}

// NewDailyContest builds a daily contest starting at now. Fixed rules:
// budget 1,000,000, between 5 and 10 stocks, captain 2x, vice-captain
// 1.5x, at most 3 stocks per sector.
func NewDailyContest(now time.Time) *model.Contest {
	end := NextDailyClose(now)
	return &model.Contest{
		ID:          newContestID(),
		Type:        model.ContestDaily,
		Name:        "Daily Challenge - " + end.Format("02 Jan 2006"),
		Description: "Build your dream portfolio and compete for the top spot!",
		StartTime:   now,
		EndTime:     end,
		Status:      model.StatusActive,
		Budget:      contestBudget,
		MinStocks:   5,
		MaxStocks:   10,
		EntryFee:    decimal.Zero,
		PrizePool:   "Educational Points",
		Rules: model.ContestRules{
			CaptainMultiplier:     decimal.NewFromFloat(2.0),
			ViceCaptainMultiplier: decimal.NewFromFloat(1.5),
			MaxPerSector:          3,
		},
	}
}

// NewWeeklyContest builds a weekly contest starting at now. Same
// budget and stock bounds as daily; the sector cap is relaxed to 4.
func NewWeeklyContest(now time.Time) *model.Contest {
	end := NextWeeklyClose(now)
	return &model.Contest{
		ID:          newContestID(),
		Type:        model.ContestWeekly,
		Name:        fmt.Sprintf("Weekly Championship - Week %02d, %d", weekOfYear(end), end.Year()),
		Description: "A week-long battle of stock picking skills!",
		StartTime:   now,
		EndTime:     end,
		Status:      model.StatusActive,
		Budget:      contestBudget,
		MinStocks:   5,
		MaxStocks:   10,
		EntryFee:    decimal.Zero,
		PrizePool:   "Educational Points + Badge",
		Rules: model.ContestRules{
			CaptainMultiplier:     decimal.NewFromFloat(2.0),
			ViceCaptainMultiplier: decimal.NewFromFloat(1.5),
			MaxPerSector:          4,
		},
	}
}
