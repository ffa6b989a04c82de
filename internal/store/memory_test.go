package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockfantasy/contest-engine/internal/model"
	"github.com/stockfantasy/contest-engine/internal/store"
)

func testContest(id string) *model.Contest {
	return &model.Contest{
		ID:        id,
		Type:      model.ContestDaily,
		Name:      "Test Contest",
		Status:    model.StatusActive,
		Budget:    decimal.NewFromInt(1000000),
		MinStocks: 5,
		MaxStocks: 10,
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}
}

func testEntry(contestID, userID string, score float64) *model.Entry {
	return &model.Entry{
		ContestID: contestID,
		UserID:    userID,
		Stocks: []model.HeldStock{
			{Symbol: "TCS", Name: "TCS", Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(1)},
		},
		Captain:     "TCS",
		SubmittedAt: time.Now(),
		Score:       decimal.NewFromFloat(score),
	}
}

func TestMemoryStore_ContestCRUD(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	if err := ms.CreateContest(ctx, testContest("CTX-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ms.CreateContest(ctx, testContest("CTX-1")); err == nil {
		t.Error("duplicate create succeeded")
	}

	c, err := ms.GetContest(ctx, "CTX-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Name != "Test Contest" {
		t.Errorf("name = %q", c.Name)
	}

	if _, err := ms.GetContest(ctx, "CTX-NOPE"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing contest err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_CopySemantics(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	if err := ms.CreateContest(ctx, testContest("CTX-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	c, _ := ms.GetContest(ctx, "CTX-1")
	c.Name = "mutated"

	again, _ := ms.GetContest(ctx, "CTX-1")
	if again.Name != "Test Contest" {
		t.Error("mutating a returned contest leaked into the store")
	}
}

func TestMemoryStore_ListContestsCreationOrder(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"CTX-3", "CTX-1", "CTX-2"} {
		if err := ms.CreateContest(ctx, testContest(id)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	all, err := ms.ListContests(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"CTX-3", "CTX-1", "CTX-2"}
	for i, c := range all {
		if c.ID != want[i] {
			t.Errorf("position %d = %s, want %s", i, c.ID, want[i])
		}
	}
}

func TestMemoryStore_IncrementParticipants(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	if err := ms.CreateContest(ctx, testContest("CTX-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := ms.IncrementParticipants(ctx, "CTX-1"); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	c, _ := ms.GetContest(ctx, "CTX-1")
	if c.Participants != 3 {
		t.Errorf("participants = %d, want 3", c.Participants)
	}

	if err := ms.IncrementParticipants(ctx, "CTX-NOPE"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing contest err = %v", err)
	}
}

func TestMemoryStore_PutEntryOverwriteKeepsPosition(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	for _, user := range []string{"u1", "u2", "u3"} {
		if err := ms.PutEntry(ctx, testEntry("CTX-1", user, 0)); err != nil {
			t.Fatalf("put %s: %v", user, err)
		}
	}

	// Resubmit the first user; its slot must not move to the back.
	updated := testEntry("CTX-1", "u1", 0)
	updated.Captain = "INFY"
	if err := ms.PutEntry(ctx, updated); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	entries, err := ms.ListEntriesByContest(ctx, "CTX-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].UserID != "u1" || entries[0].Captain != "INFY" {
		t.Errorf("first slot = %s/%s, want overwritten u1", entries[0].UserID, entries[0].Captain)
	}
}

func TestMemoryStore_PutEntryClearsAnnotation(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	e := testEntry("CTX-1", "u1", 0)
	e.Contest = testContest("CTX-1")
	if err := ms.PutEntry(ctx, e); err != nil {
		t.Fatalf("put: %v", err)
	}

	stored, err := ms.GetEntry(ctx, "CTX-1", "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Contest != nil {
		t.Error("contest annotation persisted; it is read-time only")
	}
}

func TestMemoryStore_ListEntriesByUser(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	ms.PutEntry(ctx, testEntry("CTX-1", "u1", 10))
	ms.PutEntry(ctx, testEntry("CTX-2", "u1", 20))
	ms.PutEntry(ctx, testEntry("CTX-1", "u2", 30))

	entries, err := ms.ListEntriesByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ContestID != "CTX-1" || entries[1].ContestID != "CTX-2" {
		t.Errorf("order = %s, %s", entries[0].ContestID, entries[1].ContestID)
	}
}

func TestMemoryStore_UpdateEntryScore(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	if err := ms.PutEntry(ctx, testEntry("CTX-1", "u1", 0)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := ms.UpdateEntryScore(ctx, "CTX-1", "u1", decimal.NewFromFloat(42.5)); err != nil {
		t.Fatalf("update: %v", err)
	}

	e, _ := ms.GetEntry(ctx, "CTX-1", "u1")
	if e.Score.String() != "42.5" {
		t.Errorf("score = %s, want 42.5", e.Score)
	}

	if err := ms.UpdateEntryScore(ctx, "CTX-1", "ghost", decimal.Zero); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing entry err = %v", err)
	}
}

func TestMemoryStore_Users(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	if _, err := ms.GetUser(ctx, model.DefaultUserID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing user err = %v", err)
	}

	if err := ms.SaveUser(ctx, model.DefaultUser()); err != nil {
		t.Fatalf("save: %v", err)
	}

	u, err := ms.GetUser(ctx, model.DefaultUserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Name != "Player" || u.Balance.String() != "1000000" {
		t.Errorf("user = %+v", u)
	}

	// Returned users are copies.
	u.Wins = 99
	again, _ := ms.GetUser(ctx, model.DefaultUserID)
	if again.Wins != 0 {
		t.Error("mutating a returned user leaked into the store")
	}
}
