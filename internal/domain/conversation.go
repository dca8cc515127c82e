package domain

import "time"

// EventKind identifies who produced a conversation event.
type EventKind string

const (
	EventSystem EventKind = "system"
	EventUser   EventKind = "user"
	EventAI     EventKind = "ai"
)

// ConversationEvent is a single entry in a session's event log.
type ConversationEvent struct {
	Kind      EventKind `json:"kind"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Screen    string    `json:"screen"`
}

// Topic is the coarse subject of a user message.
type Topic string

const (
	TopicGoal       Topic = "goal"
	TopicSpending   Topic = "spending"
	TopicInvestment Topic = "investment"
	TopicSavings    Topic = "savings"
	TopicDebt       Topic = "debt"
	TopicIncome     Topic = "income"
	TopicGeneral    Topic = "general"
)

// ConversationContext is the rendered recent history of a session.
type ConversationContext struct {
	CurrentScreen   string   `json:"currentScreen"`
	DurationMinutes int      `json:"durationMinutes"`
	MessageCount    int      `json:"messageCount"`
	History         []string `json:"history"`
}

// ConversationSummary describes where the user left the conversation.
type ConversationSummary struct {
	LastTopic              Topic     `json:"lastTopic"`
	LastScreen             string    `json:"lastScreen"`
	LastInteractionTime    time.Time `json:"lastInteractionTime"`
	HasOngoingConversation bool      `json:"hasOngoingConversation"`
	SuggestedContinuation  string    `json:"suggestedContinuation"`
}
