// Package conversation tracks the event log of an active user session.
package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/ashureev/fincoach/internal/domain"
)

const (
	historyLimit  = 10
	ongoingWindow = 10 * time.Minute
)

// Tracker owns the append-only event log of one session. It is safe for
// concurrent use; appends are serialized so the log stays in FIFO order.
type Tracker struct {
	mu            sync.Mutex
	events        []domain.ConversationEvent
	startedAt     time.Time
	currentScreen string
	profile       *domain.UserProfile

	classifier TopicClassifier
	now        func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithClassifier overrides the topic classifier.
func WithClassifier(c TopicClassifier) Option {
	return func(t *Tracker) {
		if c != nil {
			t.classifier = c
		}
	}
}

// NewTracker creates an empty session tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		classifier: KeywordClassifier{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetUserContext records the active user profile.
func (t *Tracker) SetUserContext(profile *domain.UserProfile) {
	if profile == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.profile = profile
	t.appendLocked(domain.EventSystem, fmt.Sprintf("User context set for %s", profile.DisplayName()), t.currentScreen)
}

// SetCurrentScreen records the screen the user is viewing.
func (t *Tracker) SetCurrentScreen(screen string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.currentScreen = screen
	t.appendLocked(domain.EventSystem, fmt.Sprintf("User navigated to %s", screen), screen)
}

// AddUserMessage appends a user message. An empty screen means the current screen.
func (t *Tracker) AddUserMessage(text, screen string) {
	t.add(domain.EventUser, text, screen)
}

// AddAIResponse appends an assistant response. An empty screen means the current screen.
func (t *Tracker) AddAIResponse(text, screen string) {
	t.add(domain.EventAI, text, screen)
}

func (t *Tracker) add(kind domain.EventKind, text, screen string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if screen == "" {
		screen = t.currentScreen
	}
	t.appendLocked(kind, text, screen)
}

func (t *Tracker) appendLocked(kind domain.EventKind, text, screen string) {
	now := t.now()
	if t.startedAt.IsZero() {
		t.startedAt = now
	}
	t.events = append(t.events, domain.ConversationEvent{
		Kind:      kind,
		Text:      text,
		Timestamp: now,
		Screen:    screen,
	})
}

// Context renders the last ten non-system events with session totals.
func (t *Tracker) Context() domain.ConversationContext {
	t.mu.Lock()
	defer t.mu.Unlock()

	var dialogue []domain.ConversationEvent
	for _, e := range t.events {
		if e.Kind != domain.EventSystem {
			dialogue = append(dialogue, e)
		}
	}

	recent := dialogue
	if len(recent) > historyLimit {
		recent = recent[len(recent)-historyLimit:]
	}
	history := make([]string, 0, len(recent))
	for _, e := range recent {
		history = append(history, roleLabel(e.Kind)+": "+e.Text)
	}

	ctx := domain.ConversationContext{
		CurrentScreen: t.currentScreen,
		MessageCount:  len(dialogue),
		History:       history,
	}
	if !t.startedAt.IsZero() {
		ctx.DurationMinutes = int(t.now().Sub(t.startedAt) / time.Minute)
	}
	return ctx
}

// Summary describes the latest user message, or returns nil if there is none.
func (t *Tracker) Summary() *domain.ConversationSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.lastUserLocked()
	if !ok {
		return nil
	}
	topic := t.classifier.Classify(last.Text)
	return &domain.ConversationSummary{
		LastTopic:              topic,
		LastScreen:             last.Screen,
		LastInteractionTime:    last.Timestamp,
		HasOngoingConversation: t.now().Sub(last.Timestamp) <= ongoingWindow,
		SuggestedContinuation:  SuggestedContinuation(topic),
	}
}

// HasRecentConversation reports whether a user or AI event happened within window.
func (t *Tracker) HasRecentConversation(window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for i := len(t.events) - 1; i >= 0; i-- {
		e := t.events[i]
		if e.Kind == domain.EventSystem {
			continue
		}
		return now.Sub(e.Timestamp) <= window
	}
	return false
}

// LastUserMessage returns the text of the most recent user message.
func (t *Tracker) LastUserMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, _ := t.lastUserLocked()
	return last.Text
}

func (t *Tracker) lastUserLocked() (domain.ConversationEvent, bool) {
	for i := len(t.events) - 1; i >= 0; i-- {
		if t.events[i].Kind == domain.EventUser {
			return t.events[i], true
		}
	}
	return domain.ConversationEvent{}, false
}

// Profile returns the profile from the last SetUserContext call.
func (t *Tracker) Profile() *domain.UserProfile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.profile
}

// CurrentScreen returns the last screen set on the tracker.
func (t *Tracker) CurrentScreen() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentScreen
}

// Events returns a copy of the event log.
func (t *Tracker) Events() []domain.ConversationEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.ConversationEvent(nil), t.events...)
}

// Clear resets the session.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = nil
	t.startedAt = time.Time{}
	t.currentScreen = ""
	t.profile = nil
}

func roleLabel(kind domain.EventKind) string {
	switch kind {
	case domain.EventUser:
		return "User"
	case domain.EventAI:
		return "AI"
	default:
		return string(kind)
	}
}
