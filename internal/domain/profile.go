// Package domain contains core domain types for the fincoach service.
package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Defaults used when the profile provider leaves optional fields empty.
const (
	DefaultName        = "Valued customer"
	DefaultProfession  = "Professional"
	DefaultLocation    = "India"
	DefaultRiskProfile = "moderate"
)

// DefaultMonthlyIncome is the placeholder income used when a profile has none.
var DefaultMonthlyIncome = decimal.NewFromInt(100000)

// Goal is a savings or investment target stated by the user.
type Goal struct {
	Title         string          `json:"title"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
}

// Progress returns the completed share of the goal in the range [0, 1].
func (g Goal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	p := g.CurrentAmount.Div(g.TargetAmount).InexactFloat64()
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Details holds the demographic part of a profile.
type Details struct {
	Profession    string          `json:"profession"`
	MonthlyIncome decimal.Decimal `json:"monthlyIncome"`
	Location      string          `json:"location"`
	Age           int             `json:"age"`
	RiskProfile   string          `json:"riskProfile"`
}

// UserProfile is the read-only snapshot supplied by the profile provider.
type UserProfile struct {
	ID              string                     `json:"id"`
	Name            string                     `json:"name"`
	Profile         Details                    `json:"profile"`
	NetWorth        decimal.Decimal            `json:"netWorth"`
	Goals           []Goal                     `json:"goals"`
	MonthlySpending map[string]decimal.Decimal `json:"monthlySpending"`
}

// TotalSpending sums all monthly spending categories.
func (p *UserProfile) TotalSpending() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range p.MonthlySpending {
		total = total.Add(amount)
	}
	return total
}

// EffectiveIncome returns the monthly income, or DefaultMonthlyIncome when it is missing.
func (p *UserProfile) EffectiveIncome() decimal.Decimal {
	if !p.Profile.MonthlyIncome.IsPositive() {
		return DefaultMonthlyIncome
	}
	return p.Profile.MonthlyIncome
}

// SavingsRate returns (income - spending) / income using the effective income.
func (p *UserProfile) SavingsRate() float64 {
	income := p.EffectiveIncome()
	return income.Sub(p.TotalSpending()).Div(income).InexactFloat64()
}

// TopSpendingCategory returns the largest spending category. Ties resolve alphabetically.
func (p *UserProfile) TopSpendingCategory() (string, decimal.Decimal) {
	categories := make([]string, 0, len(p.MonthlySpending))
	for c := range p.MonthlySpending {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	top, amount := "", decimal.Zero
	for _, c := range categories {
		if top == "" || p.MonthlySpending[c].GreaterThan(amount) {
			top, amount = c, p.MonthlySpending[c]
		}
	}
	return top, amount
}

// ActiveGoals returns goals that have not reached their target yet.
func (p *UserProfile) ActiveGoals() []Goal {
	var active []Goal
	for _, g := range p.Goals {
		if g.CurrentAmount.LessThan(g.TargetAmount) {
			active = append(active, g)
		}
	}
	return active
}

// DisplayName returns the user's name or DefaultName.
func (p *UserProfile) DisplayName() string {
	if p.Name == "" {
		return DefaultName
	}
	return p.Name
}

// Profession returns the profession or DefaultProfession.
func (p *UserProfile) Profession() string {
	if p.Profile.Profession == "" {
		return DefaultProfession
	}
	return p.Profile.Profession
}

// Location returns the location or DefaultLocation.
func (p *UserProfile) Location() string {
	if p.Profile.Location == "" {
		return DefaultLocation
	}
	return p.Profile.Location
}

// RiskProfile returns the risk profile or DefaultRiskProfile.
func (p *UserProfile) RiskProfile() string {
	if p.Profile.RiskProfile == "" {
		return DefaultRiskProfile
	}
	return p.Profile.RiskProfile
}
