// Package content serves personalized card content through a TTL cache in
// front of the generation service.
package content

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/ashureev/fincoach/internal/domain"
)

// Entry is one cached payload. It is written whole and never mutated.
type Entry struct {
	Content   *domain.Content `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
	TTL       time.Duration   `json:"ttl"`
}

// Fresh reports whether the entry may be served at now.
func (e *Entry) Fresh(now time.Time) bool {
	return e != nil && e.Content != nil && now.Sub(e.CreatedAt) < e.TTL
}

// Store persists cache entries. Get returns nil, nil when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
	DeleteUser(ctx context.Context, userID string) (int, error)
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Key builds the cache key of a card for one user and screen. Each part is
// query-escaped so ":" inside a user id or screen cannot collide with the
// separator.
func Key(cardType domain.CardType, userID, screen string) string {
	return url.QueryEscape(string(cardType)) + ":" + url.QueryEscape(userID) + ":" + url.QueryEscape(screen)
}

// keyBelongsTo reports whether key was built for userID.
func keyBelongsTo(key, userID string) bool {
	parts := strings.Split(key, ":")
	return len(parts) == 3 && parts[1] == url.QueryEscape(userID)
}
