package conversation

import (
	"strings"

	"github.com/ashureev/fincoach/internal/domain"
)

// TopicClassifier maps a user message to a topic of the fixed taxonomy.
type TopicClassifier interface {
	Classify(text string) domain.Topic
}

// taxonomy is ordered by match priority.
var taxonomy = []domain.Topic{
	domain.TopicGoal,
	domain.TopicSpending,
	domain.TopicInvestment,
	domain.TopicSavings,
	domain.TopicDebt,
	domain.TopicIncome,
}

// KeywordClassifier matches the topic names as case-insensitive substrings.
// Text matching none of them is classified as general.
type KeywordClassifier struct{}

// Classify returns the first taxonomy topic found in text.
func (KeywordClassifier) Classify(text string) domain.Topic {
	lower := strings.ToLower(text)
	for _, topic := range taxonomy {
		if strings.Contains(lower, string(topic)) {
			return topic
		}
	}
	return domain.TopicGeneral
}

var continuations = map[domain.Topic]string{
	domain.TopicGoal:       "Shall we pick up your goals again and check how close you are to the next milestone?",
	domain.TopicSpending:   "Want to continue reviewing your spending and find a category to trim this month?",
	domain.TopicInvestment: "Shall we continue with your investment plan and look at where to put your next rupee?",
	domain.TopicSavings:    "Want to keep going on your savings and set up an automatic monthly transfer?",
	domain.TopicDebt:       "Shall we continue working out the fastest way to pay down your debt?",
	domain.TopicIncome:     "Want to continue looking at how to make the most of your income?",
	domain.TopicGeneral:    "Would you like to continue where we left off?",
}

// SuggestedContinuation returns the follow-up sentence for a topic.
func SuggestedContinuation(topic domain.Topic) string {
	if s, ok := continuations[topic]; ok {
		return s
	}
	return continuations[domain.TopicGeneral]
}
