package domain

import "github.com/shopspring/decimal"

// TriggerKind names a cross-sell rule.
type TriggerKind string

const (
	TriggerHighSpending      TriggerKind = "highSpending"
	TriggerLowSavingsRate    TriggerKind = "lowSavingsRate"
	TriggerEmergencyFundGoal TriggerKind = "emergencyFundGoal"
	TriggerInvestmentGoal    TriggerKind = "investmentGoal"
	TriggerYoungProfessional TriggerKind = "youngProfessional"
	TriggerFamilyStage       TriggerKind = "familyStage"
)

// KnownTriggerKind reports whether k is one of the cross-sell rules.
func KnownTriggerKind(k TriggerKind) bool {
	switch k {
	case TriggerHighSpending, TriggerLowSavingsRate, TriggerEmergencyFundGoal,
		TriggerInvestmentGoal, TriggerYoungProfessional, TriggerFamilyStage:
		return true
	}
	return false
}

// Confidence levels attached to the primary recommendation.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"

	TimingImmediate  = "immediate"
	TimingContextual = "contextual"
)

// Recommendation is a ranked candidate product.
type Recommendation struct {
	Product                string          `json:"product"`
	ProductName            string          `json:"productName"`
	Category               string          `json:"category"`
	TriggerKind            TriggerKind     `json:"triggerKind"`
	PriorityRank           int             `json:"priorityRank"`
	ProjectedAnnualRevenue decimal.Decimal `json:"projectedAnnualRevenue"`
	ConversionProbability  float64         `json:"conversionProbability"`
	PromptText             string          `json:"promptText"`
	Pitch                  string          `json:"pitch"`
	CallToAction           string          `json:"callToAction"`
	Urgency                string          `json:"urgency"`
	Confidence             string          `json:"confidence,omitempty"`
	Timing                 string          `json:"timing,omitempty"`
}

// CrossSellContext is the per-prompt cross-sell aggregate.
type CrossSellContext struct {
	Primary    *Recommendation  `json:"primary"`
	Secondary  []Recommendation `json:"secondary"`
	PromptText string           `json:"promptText"`
}
