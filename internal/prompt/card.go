package prompt

import (
	"fmt"
	"strings"

	"github.com/ashureev/fincoach/internal/domain"
)

// CardPrompt builds the card-specific base prompt. It asks for a JSON object
// holding exactly the card's fields.
func CardPrompt(cardType domain.CardType, p *domain.UserProfile) string {
	if p == nil {
		p = &domain.UserProfile{}
	}
	var b strings.Builder

	switch cardType {
	case domain.CardSpending:
		top, amount := p.TopSpendingCategory()
		fmt.Fprintf(&b, "Write a spending insight for %s. Monthly spending is %s against income of %s",
			p.DisplayName(), domain.FormatAmount(p.TotalSpending()), domain.FormatAmount(p.EffectiveIncome()))
		if top != "" {
			fmt.Fprintf(&b, "; the largest category is %s at %s", top, domain.FormatAmount(amount))
		}
		b.WriteString(".")
	case domain.CardRecommendations:
		fmt.Fprintf(&b, "Recommend one financial product to %s, a %s with a %s risk profile.",
			p.DisplayName(), p.Profession(), p.RiskProfile())
	case domain.CardGoals:
		fmt.Fprintf(&b, "Review the goals of %s:", p.DisplayName())
		goals := p.ActiveGoals()
		if len(goals) == 0 {
			b.WriteString(" no active goals yet, suggest a first one.")
		}
		for _, g := range goals {
			fmt.Fprintf(&b, " %q %s of %s (%.0f%%);", g.Title,
				domain.FormatAmount(g.CurrentAmount), domain.FormatAmount(g.TargetAmount), g.Progress()*100)
		}
	case domain.CardSavings:
		fmt.Fprintf(&b, "Coach %s on saving. They save %.0f%% of a monthly income of %s.",
			p.DisplayName(), p.SavingsRate()*100, domain.FormatAmount(p.EffectiveIncome()))
	case domain.CardInvestments:
		fmt.Fprintf(&b, "Give %s an investment overview. Net worth is %s and the risk profile is %s.",
			p.DisplayName(), domain.FormatAmount(p.NetWorth), p.RiskProfile())
	default:
		fmt.Fprintf(&b, "Write a short personalized financial insight for %s.", p.DisplayName())
	}

	fields := cardType.Fields()
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	fmt.Fprintf(&b, "\nRespond with only a JSON object with the string fields %s.", strings.Join(quoted, ", "))
	return b.String()
}
