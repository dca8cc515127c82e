package content

import (
	"bytes"
	"math"
	"text/template"

	"github.com/ashureev/fincoach/internal/domain"
	"github.com/shopspring/decimal"
)

var fallbackTemplates = map[domain.CardType]map[string]string{
	domain.CardSpending: {
		"insight": "You spent {{.Spending}} this month, {{.SpendingPercent}}% of your {{.Income}} income.{{if .TopCategory}} {{.TopCategory}} was your largest category at {{.TopAmount}}.{{end}}",
		"tip":     "Trimming {{if .TopCategory}}{{.TopCategory}}{{else}}discretionary spending{{end}} by 10% would free up {{.TopTrim}} every month.",
		"action":  "Set a monthly budget and review it every Sunday.",
	},
	domain.CardRecommendations: {
		"product": "Systematic Investment Plan",
		"reason":  "{{if .HasSurplus}}With {{.MonthlySavings}} left over each month, a SIP puts your surplus to work automatically.{{else}}Even a small SIP builds the saving habit while you bring spending under your income.{{end}}",
		"benefit": "Small monthly amounts grow steadily through compounding.",
		"cta":     "Start a SIP",
	},
	domain.CardGoals: {
		"progress":  "{{if .GoalTitle}}You are {{.GoalProgress}}% of the way to {{.GoalTitle}}.{{else}}You have not set a goal yet.{{end}}",
		"milestone": "{{if .GoalTitle}}{{.GoalRemaining}} to go before you reach it.{{else}}A first goal makes saving easier to stick to.{{end}}",
		"nextStep":  "{{if .GoalTitle}}Automate a monthly transfer toward {{.GoalTitle}}.{{else}}Pick one goal and a target amount today.{{end}}",
	},
	domain.CardSavings: {
		"insight": "You save {{.SavingsPercent}}% of your income, about {{.MonthlySavings}} a month.",
		"target":  "Aim to save {{.SavingsTarget}} a month, 20% of your income.",
		"action":  "Move your savings on payday so they are set aside before you spend.",
	},
	domain.CardInvestments: {
		"summary":     "Your net worth stands at {{.NetWorth}} with a {{.RiskProfile}} risk profile.",
		"opportunity": "Investing {{.SavingsTarget}} a month through a diversified fund suits a {{.RiskProfile}} investor.",
		"risk":        "Markets move; keep six months of expenses, about {{.EmergencyFund}}, in safe liquid savings first.",
	},
}

var parsedFallbacks = func() map[domain.CardType]map[string]*template.Template {
	out := make(map[domain.CardType]map[string]*template.Template, len(fallbackTemplates))
	for ct, fields := range fallbackTemplates {
		out[ct] = make(map[string]*template.Template, len(fields))
		for name, text := range fields {
			out[ct][name] = template.Must(template.New(string(ct) + "." + name).Parse(text))
		}
	}
	return out
}()

type fallbackData struct {
	Name            string
	Income          string
	Spending        string
	SpendingPercent int
	SavingsPercent  int
	MonthlySavings  string
	HasSurplus      bool
	SavingsTarget   string
	EmergencyFund   string
	TopCategory     string
	TopAmount       string
	TopTrim         string
	NetWorth        string
	RiskProfile     string
	GoalTitle       string
	GoalProgress    int
	GoalRemaining   string
}

func newFallbackData(p *domain.UserProfile) fallbackData {
	income := p.EffectiveIncome()
	spending := p.TotalSpending()
	top, topAmount := p.TopSpendingCategory()
	base := topAmount
	if top == "" {
		base = spending
	}

	d := fallbackData{
		Name:            p.DisplayName(),
		Income:          domain.FormatAmount(income),
		Spending:        domain.FormatAmount(spending),
		SpendingPercent: int(math.Round(spending.Div(income).InexactFloat64() * 100)),
		SavingsPercent:  int(math.Round(p.SavingsRate() * 100)),
		MonthlySavings:  domain.FormatAmount(income.Sub(spending)),
		HasSurplus:      income.GreaterThan(spending),
		SavingsTarget:   domain.FormatAmount(income.Mul(decimal.NewFromFloat(0.2))),
		EmergencyFund:   domain.FormatAmount(spending.Mul(decimal.NewFromInt(6))),
		TopCategory:     top,
		TopAmount:       domain.FormatAmount(topAmount),
		TopTrim:         domain.FormatAmount(base.Mul(decimal.NewFromFloat(0.1))),
		NetWorth:        domain.FormatAmount(p.NetWorth),
		RiskProfile:     p.RiskProfile(),
	}
	if goals := p.ActiveGoals(); len(goals) > 0 {
		g := goals[0]
		d.GoalTitle = g.Title
		d.GoalProgress = int(math.Round(g.Progress() * 100))
		d.GoalRemaining = domain.FormatAmount(g.TargetAmount.Sub(g.CurrentAmount))
	}
	return d
}

// fallbackFields renders the static content of a card from the user's live numbers.
// Unknown card types use the spending templates.
func fallbackFields(cardType domain.CardType, p *domain.UserProfile) map[string]string {
	templates, ok := parsedFallbacks[cardType]
	if !ok {
		templates = parsedFallbacks[domain.CardSpending]
	}
	data := newFallbackData(p)

	fields := make(map[string]string, len(templates))
	for name, tmpl := range templates {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			continue
		}
		fields[name] = buf.String()
	}
	return fields
}
