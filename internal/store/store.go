// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/ashureev/fincoach/internal/domain"
)

// ProfileProvider supplies read-only profile snapshots.
type ProfileProvider interface {
	// GetProfile returns the profile of userID, or nil, nil when none exists.
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// Repository is a ProfileProvider that can also write profiles.
type Repository interface {
	ProfileProvider

	// UpsertProfile creates or replaces a profile.
	UpsertProfile(ctx context.Context, profile *domain.UserProfile) error

	// DeleteProfile removes a profile. Deleting a missing profile is not an error.
	DeleteProfile(ctx context.Context, userID string) error

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
