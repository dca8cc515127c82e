package content

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ashureev/fincoach/internal/conversation"
	"github.com/ashureev/fincoach/internal/domain"
	"github.com/ashureev/fincoach/internal/generation"
	"github.com/ashureev/fincoach/internal/prompt"
	"github.com/ashureev/fincoach/internal/triggers"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL     = 5 * time.Minute
	DefaultTimeout = 8 * time.Second
)

// Request selects one card for one user.
type Request struct {
	CardType     domain.CardType
	Profile      *domain.UserProfile
	Screen       string
	ForceRefresh bool
}

// Service resolves card content from the store or the generation service.
// GetContent never fails: errors resolve to fallback content.
type Service struct {
	store     Store
	generator generation.Client
	engine    *triggers.Engine
	ttl       time.Duration
	timeout   time.Duration
	now       func() time.Time
	logger    *slog.Logger

	flights singleflight.Group

	mu     sync.Mutex
	epochs map[string]uint64
}

// Option configures a Service.
type Option func(*Service)

// WithTTL sets how long generated content stays fresh.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithTimeout bounds each generation call.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a content service.
func NewService(store Store, generator generation.Client, engine *triggers.Engine, opts ...Option) *Service {
	s := &Service{
		store:     store,
		generator: generator,
		engine:    engine,
		ttl:       DefaultTTL,
		timeout:   DefaultTimeout,
		now:       time.Now,
		logger:    slog.Default(),
		epochs:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetContent returns the card content for req, generating it on a miss.
// Concurrent misses for one key share a single generation call. A caller whose
// context ends first receives fallback content; the shared call still completes
// and populates the store for later readers. Callers sharing a generation get
// a prompt shaped by the tracker of whichever caller started it.
func (s *Service) GetContent(ctx context.Context, tracker *conversation.Tracker, req Request) *domain.Content {
	if req.Profile == nil {
		req.Profile = &domain.UserProfile{}
	}
	if tracker == nil {
		tracker = conversation.NewTracker()
	}
	key := Key(req.CardType, req.Profile.ID, req.Screen)
	log := s.logger.With("key", key, "user_id", req.Profile.ID, "card_type", req.CardType)

	if !domain.KnownCardType(req.CardType) {
		log.Warn("Unknown card type, using generic schema")
	}

	epoch := s.epoch(req.Profile.ID)
	flightKey := key + "#" + strconv.FormatUint(epoch, 10)
	if req.ForceRefresh {
		if err := s.store.Delete(ctx, key); err != nil {
			log.Warn("Failed to evict content entry", "error", err)
		}
		flightKey = "refresh:" + flightKey
	} else if c := s.lookup(ctx, log, key); c != nil {
		return c
	}

	tracker.SetUserContext(req.Profile)
	tracker.SetCurrentScreen(req.Screen)

	detached := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(flightKey, func() (any, error) {
		if !req.ForceRefresh {
			if c := s.lookup(detached, log, key); c != nil {
				return c, nil
			}
		}
		return s.generate(detached, log, tracker, req, key, epoch)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			log.Warn("Content generation failed, serving fallback", "error", res.Err)
			return s.Fallback(req.CardType, req.Profile)
		}
		if res.Shared {
			log.Debug("Content generation shared with concurrent request")
		}
		return res.Val.(*domain.Content)
	case <-ctx.Done():
		log.Info("Content request canceled, serving fallback", "reason", ctx.Err())
		return s.Fallback(req.CardType, req.Profile)
	}
}

func (s *Service) lookup(ctx context.Context, log *slog.Logger, key string) *domain.Content {
	entry, err := s.store.Get(ctx, key)
	if err != nil {
		log.Warn("Content store read failed", "error", err)
		return nil
	}
	if entry.Fresh(s.now()) {
		return entry.Content
	}
	return nil
}

func (s *Service) generate(ctx context.Context, log *slog.Logger, tracker *conversation.Tracker, req Request, key string, epoch uint64) (*domain.Content, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	assembled := prompt.NewAssembler(tracker, s.engine).Assemble(prompt.CardPrompt(req.CardType, req.Profile), req.CardType)

	start := s.now()
	resp, err := s.generator.Generate(ctx, generation.Request{
		Message:        assembled,
		ConversationID: generation.ConversationID(req.Profile.ID, req.CardType),
		UserID:         req.Profile.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	fallback := fallbackFields(req.CardType, req.Profile)
	fields, err := parseFields(req.CardType, resp.Message, fallback)
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	now := s.now()
	c := &domain.Content{
		CardType:    req.CardType,
		Fields:      fields,
		Source:      domain.SourceGenerated,
		GeneratedAt: now,
	}
	s.cache(ctx, log, req.Profile.ID, key, epoch, &Entry{Content: c, CreatedAt: now, TTL: s.ttl})
	log.Info("Content generated", "duration", now.Sub(start))
	return c, nil
}

// cache writes entry unless the user was invalidated after epoch was read. An
// invalidation racing the write is caught by the second check.
func (s *Service) cache(ctx context.Context, log *slog.Logger, userID, key string, epoch uint64, entry *Entry) {
	if s.epoch(userID) != epoch {
		log.Info("User invalidated during generation, not caching")
		return
	}
	if err := s.store.Set(ctx, key, entry); err != nil {
		log.Warn("Content store write failed", "error", err)
		return
	}
	if s.epoch(userID) != epoch {
		if err := s.store.Delete(ctx, key); err != nil {
			log.Warn("Failed to evict content entry", "error", err)
		}
	}
}

// Fallback builds static content for a card from the profile's live numbers.
func (s *Service) Fallback(cardType domain.CardType, p *domain.UserProfile) *domain.Content {
	if p == nil {
		p = &domain.UserProfile{}
	}
	return &domain.Content{
		CardType:    cardType,
		Fields:      fallbackFields(cardType, p),
		Source:      domain.SourceFallback,
		GeneratedAt: s.now(),
	}
}

func (s *Service) epoch(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epochs[userID]
}

// Invalidate drops every cached card of a user. Generations already in flight
// for the user still answer their callers but are not cached.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	s.mu.Lock()
	s.epochs[userID]++
	s.mu.Unlock()

	n, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to invalidate content", "user_id", userID, "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("Content invalidated", "user_id", userID, "count", n)
	}
}

// Sweep removes stale entries from the store.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	return s.store.Sweep(ctx, s.now())
}
