package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/fincoach/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for concurrent readers.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		profession TEXT NOT NULL DEFAULT '',
		monthly_income TEXT NOT NULL DEFAULT '0',
		location TEXT NOT NULL DEFAULT '',
		age INTEGER NOT NULL DEFAULT 0,
		risk_profile TEXT NOT NULL DEFAULT '',
		net_worth TEXT NOT NULL DEFAULT '0',
		goals_json TEXT NOT NULL DEFAULT '[]',
		spending_json TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_updated ON profiles(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetProfile retrieves a profile by user ID.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, name, profession, monthly_income, location, age,
		       risk_profile, net_worth, goals_json, spending_json
		FROM profiles WHERE user_id = ?`

	var (
		p                       domain.UserProfile
		income, netWorth        string
		goalsJSON, spendingJSON string
	)
	err := withRetry(ctx, "get_profile", func() error {
		return s.db.QueryRowContext(ctx, query, userID).Scan(
			&p.ID, &p.Name, &p.Profile.Profession, &income, &p.Profile.Location, &p.Profile.Age,
			&p.Profile.RiskProfile, &netWorth, &goalsJSON, &spendingJSON,
		)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile row: %w", err)
	}

	if p.Profile.MonthlyIncome, err = decimal.NewFromString(income); err != nil {
		return nil, fmt.Errorf("parse monthly income: %w", err)
	}
	if p.NetWorth, err = decimal.NewFromString(netWorth); err != nil {
		return nil, fmt.Errorf("parse net worth: %w", err)
	}
	if err := json.Unmarshal([]byte(goalsJSON), &p.Goals); err != nil {
		return nil, fmt.Errorf("unmarshal goals: %w", err)
	}
	if err := json.Unmarshal([]byte(spendingJSON), &p.MonthlySpending); err != nil {
		return nil, fmt.Errorf("unmarshal spending: %w", err)
	}
	return &p, nil
}

// UpsertProfile creates or replaces a profile.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, p *domain.UserProfile) error {
	if err := Validate(p); err != nil {
		return err
	}

	goals := p.Goals
	if goals == nil {
		goals = []domain.Goal{}
	}
	goalsJSON, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("marshal goals: %w", err)
	}
	spending := p.MonthlySpending
	if spending == nil {
		spending = map[string]decimal.Decimal{}
	}
	spendingJSON, err := json.Marshal(spending)
	if err != nil {
		return fmt.Errorf("marshal spending: %w", err)
	}

	query := `
	INSERT INTO profiles (user_id, name, profession, monthly_income, location, age,
		risk_profile, net_worth, goals_json, spending_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		name = excluded.name,
		profession = excluded.profession,
		monthly_income = excluded.monthly_income,
		location = excluded.location,
		age = excluded.age,
		risk_profile = excluded.risk_profile,
		net_worth = excluded.net_worth,
		goals_json = excluded.goals_json,
		spending_json = excluded.spending_json,
		updated_at = excluded.updated_at`

	now := time.Now().Unix()
	err = withRetry(ctx, "upsert_profile", func() error {
		_, err := s.db.ExecContext(ctx, query,
			p.ID, p.Name, p.Profile.Profession, p.Profile.MonthlyIncome.String(), p.Profile.Location,
			p.Profile.Age, p.Profile.RiskProfile, p.NetWorth.String(),
			string(goalsJSON), string(spendingJSON), now, now,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// DeleteProfile removes a profile.
func (s *SQLiteStore) DeleteProfile(ctx context.Context, userID string) error {
	err := withRetry(ctx, "delete_profile", func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Validate rejects profiles that cannot be stored.
// Missing optional fields are allowed; readers apply defaults.
func Validate(p *domain.UserProfile) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidProfile)
	}
	if p.Profile.MonthlyIncome.IsNegative() || p.Profile.Age < 0 {
		return fmt.Errorf("%w: income and age must not be negative", domain.ErrInvalidProfile)
	}
	for category, amount := range p.MonthlySpending {
		if amount.IsNegative() {
			return fmt.Errorf("%w: spending on %s is negative", domain.ErrInvalidProfile, category)
		}
	}
	for _, g := range p.Goals {
		if strings.TrimSpace(g.Title) == "" {
			return fmt.Errorf("%w: goal title is required", domain.ErrInvalidProfile)
		}
	}
	return nil
}
