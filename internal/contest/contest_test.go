package contest_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stockfantasy/contest-engine/internal/contest"
	"github.com/stockfantasy/contest-engine/internal/model"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("bad time literal %q: %v", value, err)
	}
	return ts
}

func TestNextDailyClose(t *testing.T) {
	tests := []struct {
		name string
		now  string
		want string
	}{
		{"morning closes today", "2025-03-10 10:00", "2025-03-10 15:30"},
		{"just before close stays today", "2025-03-10 15:29", "2025-03-10 15:30"},
		{"at close rolls to tomorrow", "2025-03-10 15:30", "2025-03-11 15:30"},
		{"late in close hour rolls", "2025-03-10 15:45", "2025-03-11 15:30"},
		// The hour and minute hands are compared independently, so
		// 16:05 reads as "minute hand not past 30" and stays today.
		{"next hour low minutes stays today", "2025-03-10 16:05", "2025-03-10 15:30"},
		{"next hour high minutes rolls", "2025-03-10 16:45", "2025-03-11 15:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contest.NextDailyClose(at(t, tt.now))
			if want := at(t, tt.want); !got.Equal(want) {
				t.Errorf("NextDailyClose(%s) = %s, want %s", tt.now, got, want)
			}
		})
	}
}

func TestNextWeeklyClose(t *testing.T) {
	// 2025-03-10 is a Monday; 2025-03-14 is the Friday of that week.
	tests := []struct {
		name string
		now  string
		want string
	}{
		{"monday targets this friday", "2025-03-10 10:00", "2025-03-14 15:30"},
		{"friday morning closes same day", "2025-03-14 09:00", "2025-03-14 15:30"},
		// Any time in the 15:00 hour on Friday rolls a full week,
		// even before the 15:30 close itself.
		{"friday fifteen oh five rolls a week", "2025-03-14 15:05", "2025-03-21 15:30"},
		{"friday evening rolls a week", "2025-03-14 18:00", "2025-03-21 15:30"},
		{"saturday targets next friday", "2025-03-15 12:00", "2025-03-21 15:30"},
		{"sunday targets next friday", "2025-03-16 12:00", "2025-03-21 15:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contest.NextWeeklyClose(at(t, tt.now))
			if want := at(t, tt.want); !got.Equal(want) {
				t.Errorf("NextWeeklyClose(%s) = %s, want %s", tt.now, got, want)
			}
		})
	}
}

func TestNewDailyContest(t *testing.T) {
	now := at(t, "2025-03-10 10:00")
	c := contest.NewDailyContest(now)

	if !strings.HasPrefix(c.ID, "CTX-") || len(c.ID) != len("CTX-")+8 {
		t.Errorf("id = %q, want CTX- plus 8 hex chars", c.ID)
	}
	if c.Type != model.ContestDaily || c.Status != model.StatusActive {
		t.Errorf("type/status = %s/%s", c.Type, c.Status)
	}
	if c.Name != "Daily Challenge - 10 Mar 2025" {
		t.Errorf("name = %q", c.Name)
	}
	if c.MinStocks != 5 || c.MaxStocks != 10 {
		t.Errorf("stock bounds = %d..%d, want 5..10", c.MinStocks, c.MaxStocks)
	}
	if c.Budget.String() != "1000000" {
		t.Errorf("budget = %s, want 1000000", c.Budget)
	}
	if c.Rules.MaxPerSector != 3 {
		t.Errorf("max per sector = %d, want 3", c.Rules.MaxPerSector)
	}
	if !c.EndTime.Equal(at(t, "2025-03-10 15:30")) {
		t.Errorf("end = %s", c.EndTime)
	}
}

func TestNewWeeklyContest(t *testing.T) {
	now := at(t, "2025-03-10 10:00")
	c := contest.NewWeeklyContest(now)

	if c.Type != model.ContestWeekly {
		t.Errorf("type = %s", c.Type)
	}
	// Friday 2025-03-14 falls in Monday-based week 10 (ISO would say 11).
	if c.Name != "Weekly Championship - Week 10, 2025" {
		t.Errorf("name = %q", c.Name)
	}
	if c.Rules.MaxPerSector != 4 {
		t.Errorf("max per sector = %d, want 4", c.Rules.MaxPerSector)
	}
	if !c.EndTime.Equal(at(t, "2025-03-14 15:30")) {
		t.Errorf("end = %s", c.EndTime)
	}
}

func TestNewWeeklyContest_WeekNumbering(t *testing.T) {
	tests := []struct {
		name string
		now  string
		want string
	}{
		// Week numbers are Monday-based from the start of the year, so
		// days before the first Monday land in week 0.
		{"before first monday", "2021-01-01 10:00", "Weekly Championship - Week 00, 2021"},
		{"year starts on monday", "2024-01-01 10:00", "Weekly Championship - Week 01, 2024"},
		{"mid year", "2025-03-10 10:00", "Weekly Championship - Week 10, 2025"},
		{"late year", "2025-12-22 10:00", "Weekly Championship - Week 51, 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := contest.NewWeeklyContest(at(t, tt.now))
			if c.Name != tt.want {
				t.Errorf("name = %q, want %q", c.Name, tt.want)
			}
		})
	}
}

func TestContestIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	now := time.Now()
	for i := 0; i < 100; i++ {
		id := contest.NewDailyContest(now).ID
		if seen[id] {
			t.Fatalf("duplicate contest id %s", id)
		}
		seen[id] = true
	}
}
