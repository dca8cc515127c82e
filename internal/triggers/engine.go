// Package triggers evaluates cross-sell rules over a user's financial profile.
package triggers

import (
	"fmt"
	"math"
	"sort"

	"github.com/ashureev/fincoach/internal/catalog"
	"github.com/ashureev/fincoach/internal/domain"
	"github.com/shopspring/decimal"
)

// Rule thresholds.
const (
	HighSpendingThreshold   = 50000
	LowSavingsRateThreshold = 0.15
	SavingsEstimateRate     = 0.05
	CoverageIncomeMultiple  = 10

	youngProfessionalMinAge = 22
	youngProfessionalMaxAge = 30
	familyStageMinAge       = 30
	familyStageMaxAge       = 45

	maxSecondary = 2
)

var (
	emergencyKeywords  = []string{"emergency", "fund", "safety", "backup"}
	investmentKeywords = []string{"invest", "portfolio", "returns", "wealth"}
	intentKeywords     = []string{"need", "want", "looking for", "help with", "recommend", "suggest"}
)

// Payload carries the numbers a trigger derived from the profile.
type Payload struct {
	SpendAmount        decimal.Decimal `json:"spendAmount"`
	SavingsEstimate    decimal.Decimal `json:"savingsEstimate"`
	SavingsRatePercent int             `json:"savingsRatePercent"`
	GoalTitle          string          `json:"goalTitle,omitempty"`
	GoalTarget         decimal.Decimal `json:"goalTarget"`
	Age                int             `json:"age,omitempty"`
	SuggestedCoverage  decimal.Decimal `json:"suggestedCoverage"`
}

// Trigger is a fired rule and the products it recommends.
type Trigger struct {
	Kind     domain.TriggerKind `json:"kind"`
	Products []string           `json:"products"`
	Payload  Payload            `json:"payload"`
}

// Result is the ranked outcome of one evaluation.
type Result struct {
	Screen          string                  `json:"screen"`
	Triggers        []Trigger               `json:"triggers"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	Primary         *domain.Recommendation  `json:"primary"`
	Secondary       []domain.Recommendation `json:"secondary"`
}

// Engine evaluates triggers against an injected, read-only catalog.
type Engine struct {
	catalog *catalog.Catalog
	matcher Matcher
}

// Option configures an Engine.
type Option func(*Engine)

// WithMatcher replaces the keyword matcher used for goals and intent.
func WithMatcher(m Matcher) Option {
	return func(e *Engine) {
		if m != nil {
			e.matcher = m
		}
	}
}

// NewEngine creates an engine over the given catalog.
func NewEngine(c *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: c, matcher: SubstringMatcher{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Triggers returns the rules that fire for the profile, in evaluation order.
func (e *Engine) Triggers(profile *domain.UserProfile, screen string) []Trigger {
	if profile == nil {
		return nil
	}

	var fired []Trigger
	fire := func(kind domain.TriggerKind, p Payload) {
		fired = append(fired, Trigger{Kind: kind, Products: e.catalog.ProductsFor(kind), Payload: p})
	}

	spending := profile.TotalSpending()
	if spending.GreaterThan(decimal.NewFromInt(HighSpendingThreshold)) {
		fire(domain.TriggerHighSpending, Payload{
			SpendAmount:     spending,
			SavingsEstimate: spending.Mul(decimal.NewFromFloat(SavingsEstimateRate)),
		})
	}

	if rate := profile.SavingsRate(); rate < LowSavingsRateThreshold {
		fire(domain.TriggerLowSavingsRate, Payload{
			SpendAmount:        spending,
			SavingsRatePercent: int(math.Round(rate * 100)),
		})
	}

	for _, g := range profile.Goals {
		if e.matcher.Match(g.Title, emergencyKeywords) {
			fire(domain.TriggerEmergencyFundGoal, Payload{GoalTitle: g.Title, GoalTarget: g.TargetAmount})
		}
		if e.matcher.Match(g.Title, investmentKeywords) {
			fire(domain.TriggerInvestmentGoal, Payload{GoalTitle: g.Title, GoalTarget: g.TargetAmount})
		}
	}

	age := profile.Profile.Age
	if age >= youngProfessionalMinAge && age <= youngProfessionalMaxAge {
		fire(domain.TriggerYoungProfessional, Payload{Age: age})
	}
	if age >= familyStageMinAge && age <= familyStageMaxAge {
		annual := profile.EffectiveIncome().Mul(decimal.NewFromInt(12))
		fire(domain.TriggerFamilyStage, Payload{
			Age:               age,
			SuggestedCoverage: annual.Mul(decimal.NewFromInt(CoverageIncomeMultiple)),
		})
	}

	return fired
}

// Evaluate ranks the products of every fired trigger.
func (e *Engine) Evaluate(profile *domain.UserProfile, screen string) Result {
	res := Result{Screen: screen, Triggers: e.Triggers(profile, screen)}

	seen := make(map[string]bool)
	for _, t := range res.Triggers {
		for _, key := range t.Products {
			if seen[key] {
				continue
			}
			p, ok := e.catalog.Product(key)
			if !ok {
				continue
			}
			seen[key] = true
			res.Recommendations = append(res.Recommendations, domain.Recommendation{
				Product:                p.Key,
				ProductName:            p.Name,
				Category:               p.Category,
				TriggerKind:            t.Kind,
				PriorityRank:           p.Priority,
				ProjectedAnnualRevenue: p.AnnualRevenue,
				ConversionProbability:  p.Conversion,
				PromptText:             renderPromptText(t, p),
				Pitch:                  p.Pitch,
				CallToAction:           p.CallToAction,
				Urgency:                p.Urgency,
			})
		}
	}

	sort.SliceStable(res.Recommendations, func(i, j int) bool {
		return res.Recommendations[i].PriorityRank < res.Recommendations[j].PriorityRank
	})

	if len(res.Recommendations) > 0 {
		res.Primary = &res.Recommendations[0]
		end := min(1+maxSecondary, len(res.Recommendations))
		res.Secondary = res.Recommendations[1:end]
	}
	return res
}

// EvaluateWithMessage ranks as Evaluate does and tags the primary recommendation
// with confidence and timing derived from the latest user message.
func (e *Engine) EvaluateWithMessage(profile *domain.UserProfile, screen, message string) Result {
	res := e.Evaluate(profile, screen)
	if res.Primary != nil {
		res.Primary.Confidence, res.Primary.Timing = e.ClassifyIntent(message)
	}
	return res
}

// ClassifyIntent returns high/immediate for purchase-intent messages, medium/contextual otherwise.
func (e *Engine) ClassifyIntent(message string) (confidence, timing string) {
	if message != "" && e.matcher.Match(message, intentKeywords) {
		return domain.ConfidenceHigh, domain.TimingImmediate
	}
	return domain.ConfidenceMedium, domain.TimingContextual
}

func renderPromptText(t Trigger, p catalog.Product) string {
	pl := t.Payload
	switch t.Kind {
	case domain.TriggerHighSpending:
		return fmt.Sprintf("Spends %s a month; the %s %s and could return about %s monthly.",
			domain.FormatAmount(pl.SpendAmount), p.Name, p.Pitch, domain.FormatAmount(pl.SavingsEstimate))
	case domain.TriggerLowSavingsRate:
		return fmt.Sprintf("Saves only %d%% of income; the %s %s.", pl.SavingsRatePercent, p.Name, p.Pitch)
	case domain.TriggerEmergencyFundGoal, domain.TriggerInvestmentGoal:
		return fmt.Sprintf("Working toward %q (target %s); the %s %s.",
			pl.GoalTitle, domain.FormatAmount(pl.GoalTarget), p.Name, p.Pitch)
	case domain.TriggerYoungProfessional:
		return fmt.Sprintf("At %d and early in their career; the %s %s.", pl.Age, p.Name, p.Pitch)
	case domain.TriggerFamilyStage:
		return fmt.Sprintf("At %d and in the family stage, suggested life cover is %s; the %s %s.",
			pl.Age, domain.FormatAmount(pl.SuggestedCoverage), p.Name, p.Pitch)
	default:
		return fmt.Sprintf("The %s %s.", p.Name, p.Pitch)
	}
}
