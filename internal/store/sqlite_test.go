package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ashureev/fincoach/internal/domain"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "data", "fincoach.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_ProfileRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	in := &domain.UserProfile{
		ID:   "u1",
		Name: "Meera",
		Profile: domain.Details{
			Profession:    "Doctor",
			MonthlyIncome: decimal.RequireFromString("185000.50"),
			Location:      "Chennai",
			Age:           34,
			RiskProfile:   "conservative",
		},
		NetWorth: decimal.NewFromInt(4200000),
		Goals: []domain.Goal{
			{Title: "Home down payment", TargetAmount: decimal.NewFromInt(2000000), CurrentAmount: decimal.NewFromInt(500000)},
		},
		MonthlySpending: map[string]decimal.Decimal{"rent": decimal.NewFromInt(45000)},
	}
	if err := s.UpsertProfile(ctx, in); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}

	out, err := s.GetProfile(ctx, "u1")
	if err != nil || out == nil {
		t.Fatalf("GetProfile = %v, %v", out, err)
	}
	if out.Name != "Meera" || out.Profile.Age != 34 || out.Profile.RiskProfile != "conservative" {
		t.Errorf("unexpected profile: %+v", out)
	}
	if !out.Profile.MonthlyIncome.Equal(in.Profile.MonthlyIncome) || !out.NetWorth.Equal(in.NetWorth) {
		t.Errorf("money fields changed: %s, %s", out.Profile.MonthlyIncome, out.NetWorth)
	}
	if len(out.Goals) != 1 || !out.Goals[0].CurrentAmount.Equal(decimal.NewFromInt(500000)) {
		t.Errorf("goals changed: %+v", out.Goals)
	}
	if !out.MonthlySpending["rent"].Equal(decimal.NewFromInt(45000)) {
		t.Errorf("spending changed: %v", out.MonthlySpending)
	}
}

func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.UpsertProfile(ctx, &domain.UserProfile{ID: "u1", Name: "Old"})
	if err := s.UpsertProfile(ctx, &domain.UserProfile{ID: "u1", Name: "New"}); err != nil {
		t.Fatal(err)
	}
	out, _ := s.GetProfile(ctx, "u1")
	if out.Name != "New" {
		t.Errorf("Name = %q", out.Name)
	}
	if len(out.Goals) != 0 || len(out.MonthlySpending) != 0 {
		t.Error("replaced profile kept old goals or spending")
	}
}

func TestSQLiteStore_MissingProfile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	out, err := s.GetProfile(context.Background(), "ghost")
	if err != nil || out != nil {
		t.Errorf("GetProfile(missing) = %v, %v; want nil, nil", out, err)
	}
	if err := s.DeleteProfile(context.Background(), "ghost"); err != nil {
		t.Errorf("DeleteProfile(missing): %v", err)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.UpsertProfile(ctx, &domain.UserProfile{ID: "u1"})
	if err := s.DeleteProfile(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if out, _ := s.GetProfile(ctx, "u1"); out != nil {
		t.Error("profile survived delete")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	bad := []*domain.UserProfile{
		nil,
		{ID: " "},
		{ID: "u1", Profile: domain.Details{Age: -1}},
		{ID: "u1", Profile: domain.Details{MonthlyIncome: decimal.NewFromInt(-5)}},
		{ID: "u1", MonthlySpending: map[string]decimal.Decimal{"food": decimal.NewFromInt(-1)}},
		{ID: "u1", Goals: []domain.Goal{{Title: ""}}},
	}
	for i, p := range bad {
		if err := Validate(p); !errors.Is(err, domain.ErrInvalidProfile) {
			t.Errorf("case %d: err = %v, want ErrInvalidProfile", i, err)
		}
	}
	if err := Validate(&domain.UserProfile{ID: "u1"}); err != nil {
		t.Errorf("minimal profile rejected: %v", err)
	}
}

func TestWithRetry(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	err := withRetry(context.Background(), "test", func() error {
		if calls.Add(1) < 3 {
			return fmt.Errorf("exec: database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil || calls.Load() != 3 {
		t.Errorf("withRetry = %v after %d calls", err, calls.Load())
	}

	calls.Store(0)
	permanent := errors.New("no such table")
	if err := withRetry(context.Background(), "test", func() error {
		calls.Add(1)
		return permanent
	}); !errors.Is(err, permanent) || calls.Load() != 1 {
		t.Errorf("non-conflict error retried: %v after %d calls", err, calls.Load())
	}
}
