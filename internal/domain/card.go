package domain

import "time"

// CardType names a personalized card rendered by the UI.
type CardType string

const (
	CardSpending        CardType = "spending"
	CardRecommendations CardType = "recommendations"
	CardGoals           CardType = "goals"
	CardSavings         CardType = "savings"
	CardInvestments     CardType = "investments"
)

var cardFields = map[CardType][]string{
	CardSpending:        {"insight", "tip", "action"},
	CardRecommendations: {"product", "reason", "benefit", "cta"},
	CardGoals:           {"progress", "milestone", "nextStep"},
	CardSavings:         {"insight", "target", "action"},
	CardInvestments:     {"summary", "opportunity", "risk"},
}

// KnownCardType reports whether t has a dedicated field schema.
func KnownCardType(t CardType) bool {
	_, ok := cardFields[t]
	return ok
}

// Fields returns the payload field names for the card type, in display order.
// Unknown card types use the spending schema.
func (t CardType) Fields() []string {
	fields, ok := cardFields[t]
	if !ok {
		fields = cardFields[CardSpending]
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// Content sources.
const (
	SourceGenerated = "generated"
	SourceFallback  = "fallback"
)

// Content is the payload served for one card.
type Content struct {
	CardType    CardType          `json:"cardType"`
	Fields      map[string]string `json:"fields"`
	Source      string            `json:"source"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// Complete reports whether every schema field holds non-empty text.
func (c *Content) Complete() bool {
	for _, f := range c.CardType.Fields() {
		if c.Fields[f] == "" {
			return false
		}
	}
	return true
}
