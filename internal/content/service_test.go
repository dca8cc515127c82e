package content

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ashureev/fincoach/internal/catalog"
	"github.com/ashureev/fincoach/internal/conversation"
	"github.com/ashureev/fincoach/internal/domain"
	"github.com/ashureev/fincoach/internal/generation"
	"github.com/ashureev/fincoach/internal/triggers"
	"github.com/shopspring/decimal"
)

// fakeGenerator returns a canned reply, optionally blocking until release is closed.
type fakeGenerator struct {
	calls   atomic.Int32
	reply   string
	err     error
	release chan struct{}

	mu   sync.Mutex
	last generation.Request
}

func (g *fakeGenerator) Generate(ctx context.Context, req generation.Request) (*generation.Response, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.last = req
	g.mu.Unlock()

	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return &generation.Response{Message: g.reply}, nil
}

func (g *fakeGenerator) lastRequest() generation.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const spendingReply = `{"insight":"You spend a lot on food.","tip":"Cook at home twice a week.","action":"Set a food budget."}`

func testProfile() *domain.UserProfile {
	return &domain.UserProfile{
		ID:   "u1",
		Name: "Ravi",
		Profile: domain.Details{
			MonthlyIncome: decimal.NewFromInt(150000),
			Age:           28,
		},
		NetWorth: decimal.NewFromInt(800000),
		Goals: []domain.Goal{
			{Title: "Emergency Fund", TargetAmount: decimal.NewFromInt(300000), CurrentAmount: decimal.NewFromInt(75000)},
		},
		MonthlySpending: map[string]decimal.Decimal{
			"food":      decimal.NewFromInt(30000),
			"transport": decimal.NewFromInt(10000),
		},
	}
}

func newTestService(t *testing.T, gen generation.Client, store Store, opts ...Option) *Service {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default catalog: %v", err)
	}
	return NewService(store, gen, triggers.NewEngine(c), opts...)
}

func spendingRequest() Request {
	return Request{CardType: domain.CardSpending, Profile: testProfile(), Screen: "dashboard"}
}

func TestGetContent_CacheIdempotence(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{reply: spendingReply}
	store := NewMemoryStore(0)
	svc := newTestService(t, gen, store)
	tr := conversation.NewTracker()

	first := svc.GetContent(context.Background(), tr, spendingRequest())
	second := svc.GetContent(context.Background(), tr, spendingRequest())

	if first != second {
		t.Error("expected the identical payload within the TTL")
	}
	if n := gen.calls.Load(); n != 1 {
		t.Errorf("generator called %d times, want 1", n)
	}
	if first.Source != domain.SourceGenerated || first.Fields["tip"] != "Cook at home twice a week." {
		t.Errorf("unexpected content: %+v", first)
	}
}

func TestGetContent_ForceRefreshBypassesFreshEntry(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{reply: spendingReply}
	svc := newTestService(t, gen, NewMemoryStore(0))
	tr := conversation.NewTracker()

	first := svc.GetContent(context.Background(), tr, spendingRequest())
	req := spendingRequest()
	req.ForceRefresh = true
	second := svc.GetContent(context.Background(), tr, req)

	if first == second {
		t.Error("forced refresh returned the cached payload")
	}
	if n := gen.calls.Load(); n != 2 {
		t.Errorf("generator called %d times, want 2", n)
	}
	if third := svc.GetContent(context.Background(), tr, spendingRequest()); third != second {
		t.Error("refreshed payload should be cached")
	}
}

func TestGetContent_StaleEntryRegenerates(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	gen := &fakeGenerator{reply: spendingReply}
	svc := newTestService(t, gen, NewMemoryStore(0), WithClock(clock.Now), WithTTL(5*time.Minute))
	tr := conversation.NewTracker()

	svc.GetContent(context.Background(), tr, spendingRequest())
	clock.Advance(4*time.Minute + 59*time.Second)
	svc.GetContent(context.Background(), tr, spendingRequest())
	if n := gen.calls.Load(); n != 1 {
		t.Fatalf("generator called %d times before expiry", n)
	}

	clock.Advance(time.Second)
	svc.GetContent(context.Background(), tr, spendingRequest())
	if n := gen.calls.Load(); n != 2 {
		t.Errorf("generator called %d times, want 2 after TTL", n)
	}
}

func TestGetContent_FallbackOnFailure(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{err: domain.ErrTransientService}
	store := NewMemoryStore(0)
	svc := newTestService(t, gen, store)

	for _, ct := range []domain.CardType{
		domain.CardSpending, domain.CardRecommendations, domain.CardGoals,
		domain.CardSavings, domain.CardInvestments,
	} {
		req := spendingRequest()
		req.CardType = ct
		c := svc.GetContent(context.Background(), conversation.NewTracker(), req)
		if c == nil {
			t.Fatalf("%s: nil content", ct)
		}
		if c.Source != domain.SourceFallback || c.CardType != ct {
			t.Errorf("%s: unexpected content %+v", ct, c)
		}
		if !c.Complete() {
			t.Errorf("%s: fallback missing fields: %+v", ct, c.Fields)
		}
	}
	if store.Len() != 0 {
		t.Errorf("failed generations wrote %d entries", store.Len())
	}
}

func TestGetContent_TimeoutFallsBackWithoutCaching(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{reply: spendingReply, release: make(chan struct{})}
	store := NewMemoryStore(0)
	svc := newTestService(t, gen, store, WithTimeout(20*time.Millisecond))

	c := svc.GetContent(context.Background(), conversation.NewTracker(), spendingRequest())
	if c.Source != domain.SourceFallback {
		t.Fatalf("Source = %s, want fallback", c.Source)
	}
	if !strings.Contains(c.Fields["insight"], "₹40,000") {
		t.Errorf("fallback should carry live spending: %q", c.Fields["insight"])
	}
	if store.Len() != 0 {
		t.Error("timeout must not write an entry")
	}
}

func TestGetContent_ConcurrentMissesShareOneCall(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{reply: spendingReply, release: make(chan struct{})}
	svc := newTestService(t, gen, NewMemoryStore(0))

	const callers = 16
	results := make([]*domain.Content, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.GetContent(context.Background(), conversation.NewTracker(), spendingRequest())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(gen.release)
	wg.Wait()

	if n := gen.calls.Load(); n != 1 {
		t.Errorf("generator called %d times, want 1", n)
	}
	for i, c := range results {
		if c != results[0] {
			t.Errorf("caller %d got a different payload", i)
		}
	}
}

func TestGetContent_CanceledCallerGetsFallback(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{reply: spendingReply, release: make(chan struct{})}
	store := NewMemoryStore(0)
	svc := newTestService(t, gen, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *domain.Content)
	go func() {
		done <- svc.GetContent(ctx, conversation.NewTracker(), spendingRequest())
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	c := <-done
	if c.Source != domain.SourceFallback {
		t.Fatalf("Source = %s, want fallback", c.Source)
	}

	close(gen.release)
	deadline := time.Now().Add(2 * time.Second)
	for store.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Len() != 1 {
		t.Error("shared generation should still populate the store")
	}
}

func TestInvalidate_DuringGenerationSkipsCaching(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{reply: spendingReply, release: make(chan struct{})}
	store := NewMemoryStore(0)
	svc := newTestService(t, gen, store)

	done := make(chan *domain.Content)
	go func() {
		done <- svc.GetContent(context.Background(), conversation.NewTracker(), spendingRequest())
	}()
	deadline := time.Now().Add(2 * time.Second)
	for gen.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	svc.Invalidate(context.Background(), "u1")
	close(gen.release)

	if c := <-done; c.Source != domain.SourceGenerated {
		t.Errorf("Source = %s, want generated", c.Source)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, content from before invalidation was cached", store.Len())
	}

	c := svc.GetContent(context.Background(), conversation.NewTracker(), spendingRequest())
	if c.Source != domain.SourceGenerated || gen.calls.Load() != 2 {
		t.Errorf("expected a fresh generation after invalidation, calls = %d", gen.calls.Load())
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d after regeneration, want 1", store.Len())
	}
}

func TestGetContent_UpdatesTrackerAndRequest(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{reply: spendingReply}
	svc := newTestService(t, gen, NewMemoryStore(0))
	tr := conversation.NewTracker()

	svc.GetContent(context.Background(), tr, spendingRequest())

	if tr.CurrentScreen() != "dashboard" || tr.Profile() == nil || tr.Profile().ID != "u1" {
		t.Error("tracker not updated with user and screen")
	}
	req := gen.lastRequest()
	if req.UserID != "u1" || req.ConversationID != generation.ConversationID("u1", domain.CardSpending) {
		t.Errorf("unexpected generation request ids: %+v", req)
	}
	if !strings.Contains(req.Message, "CROSS-SELL INTELLIGENCE:") || !strings.Contains(req.Message, `"insight"`) {
		t.Error("generation request should carry the assembled card prompt")
	}
}

func TestGetContent_UnknownCardTypeUsesGenericSchema(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, &fakeGenerator{err: errors.New("down")}, NewMemoryStore(0))
	req := spendingRequest()
	req.CardType = "budget"

	c := svc.GetContent(context.Background(), conversation.NewTracker(), req)
	for _, f := range []string{"insight", "tip", "action"} {
		if c.Fields[f] == "" {
			t.Errorf("missing generic field %q", f)
		}
	}
}

func TestGetContent_NilProfileFallsBackToDefaults(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, &fakeGenerator{err: domain.ErrMalformedResponse}, NewMemoryStore(0))

	c := svc.GetContent(context.Background(), nil, Request{CardType: domain.CardSavings})
	if c == nil || !c.Complete() {
		t.Fatalf("expected complete fallback, got %+v", c)
	}
	if !strings.Contains(c.Fields["target"], "₹20,000") {
		t.Errorf("target should use the default income: %q", c.Fields["target"])
	}
}

func TestInvalidateAndSweep(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(0)
	svc := newTestService(t, &fakeGenerator{reply: spendingReply}, store, WithClock(clock.Now))

	svc.GetContent(context.Background(), nil, spendingRequest())
	other := spendingRequest()
	other.Profile = testProfile()
	other.Profile.ID = "u2"
	svc.GetContent(context.Background(), nil, other)

	svc.Invalidate(context.Background(), "u1")
	if store.Len() != 1 {
		t.Fatalf("Len = %d after invalidating u1", store.Len())
	}

	clock.Advance(DefaultTTL)
	n, err := svc.Sweep(context.Background())
	if err != nil || n != 1 || store.Len() != 0 {
		t.Errorf("Sweep = %d, %v; Len = %d", n, err, store.Len())
	}
}

func TestFallback_UsesLiveNumbers(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, &fakeGenerator{}, NewMemoryStore(0))

	p := testProfile()
	goals := svc.Fallback(domain.CardGoals, p)
	if !strings.Contains(goals.Fields["progress"], "25% of the way to Emergency Fund") {
		t.Errorf("progress = %q", goals.Fields["progress"])
	}
	if !strings.Contains(goals.Fields["milestone"], "₹225,000") {
		t.Errorf("milestone = %q", goals.Fields["milestone"])
	}

	p.MonthlySpending = map[string]decimal.Decimal{"rent": decimal.NewFromInt(200000)}
	recs := svc.Fallback(domain.CardRecommendations, p)
	if strings.Contains(recs.Fields["reason"], "left over") {
		t.Errorf("overspending user should not be told about a surplus: %q", recs.Fields["reason"])
	}
}
