// Package prompt builds the text handed to the generation service.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ashureev/fincoach/internal/conversation"
	"github.com/ashureev/fincoach/internal/domain"
	"github.com/ashureev/fincoach/internal/triggers"
)

// Assembler combines session state, ranked recommendations and a base prompt.
// It performs no I/O; output depends only on the tracker and engine state.
type Assembler struct {
	tracker *conversation.Tracker
	engine  *triggers.Engine
}

// NewAssembler creates an assembler reading from one session.
func NewAssembler(tracker *conversation.Tracker, engine *triggers.Engine) *Assembler {
	return &Assembler{tracker: tracker, engine: engine}
}

// Assemble returns the full prompt for a card.
func (a *Assembler) Assemble(basePrompt string, cardType domain.CardType) string {
	profile := a.tracker.Profile()
	cross := a.CrossSell()

	var b strings.Builder
	writeConversation(&b, a.tracker.Context(), a.tracker.Summary())
	writeUserSummary(&b, profile)
	writePersona(&b)
	writeCardContext(&b, cardType, a.tracker.CurrentScreen())
	writeCrossSell(&b, cross)
	writeInstructions(&b)
	b.WriteString("TASK:\n")
	b.WriteString(basePrompt)
	return b.String()
}

// CrossSell evaluates the session's profile and screen against the trigger engine.
func (a *Assembler) CrossSell() domain.CrossSellContext {
	res := a.engine.EvaluateWithMessage(a.tracker.Profile(), a.tracker.CurrentScreen(), a.tracker.LastUserMessage())

	cross := domain.CrossSellContext{Primary: res.Primary, Secondary: res.Secondary}
	var b strings.Builder
	writeCrossSell(&b, cross)
	cross.PromptText = b.String()
	return cross
}

func writeConversation(b *strings.Builder, ctx domain.ConversationContext, summary *domain.ConversationSummary) {
	b.WriteString("CONVERSATION CONTEXT:\n")
	fmt.Fprintf(b, "- Current screen: %s\n", orDefault(ctx.CurrentScreen, "unknown"))
	fmt.Fprintf(b, "- Session duration: %d minutes\n", ctx.DurationMinutes)
	fmt.Fprintf(b, "- Messages exchanged: %d\n", ctx.MessageCount)
	if summary != nil {
		fmt.Fprintf(b, "- Last topic: %s (ongoing: %t)\n", summary.LastTopic, summary.HasOngoingConversation)
	}
	if len(ctx.History) == 0 {
		b.WriteString("- Recent history: none\n")
	} else {
		b.WriteString("- Recent history:\n")
		for _, line := range ctx.History {
			fmt.Fprintf(b, "  %s\n", line)
		}
	}
	b.WriteString("\n")
}

func writeUserSummary(b *strings.Builder, p *domain.UserProfile) {
	b.WriteString("USER SUMMARY:\n")
	if p == nil {
		p = &domain.UserProfile{}
	}
	age := "unknown"
	if p.Profile.Age > 0 {
		age = fmt.Sprintf("%d", p.Profile.Age)
	}
	fmt.Fprintf(b, "- Name: %s\n", p.DisplayName())
	fmt.Fprintf(b, "- Profession: %s\n", p.Profession())
	fmt.Fprintf(b, "- Age: %s\n", age)
	fmt.Fprintf(b, "- Location: %s\n", p.Location())
	fmt.Fprintf(b, "- Monthly income: %s\n", domain.FormatAmount(p.EffectiveIncome()))
	fmt.Fprintf(b, "- Monthly spending: %s\n", domain.FormatAmount(p.TotalSpending()))
	fmt.Fprintf(b, "- Net worth: %s\n", domain.FormatAmount(p.NetWorth))
	fmt.Fprintf(b, "- Active goals: %d\n", len(p.ActiveGoals()))
	fmt.Fprintf(b, "- Risk profile: %s\n", p.RiskProfile())
	b.WriteString("\n")
}

func writePersona(b *strings.Builder) {
	b.WriteString("PERSONA:\n")
	fmt.Fprintf(b, "- Name: %s\n", PersonaName)
	fmt.Fprintf(b, "- Role: %s\n", PersonaRole)
	fmt.Fprintf(b, "- Tone: %s\n", PersonaTone)
	fmt.Fprintf(b, "- Expertise: %s\n", PersonaExpertise)
	b.WriteString("\n")
}

func writeCardContext(b *strings.Builder, cardType domain.CardType, screen string) {
	b.WriteString("CARD CONTEXT:\n")
	fmt.Fprintf(b, "- Card: %s\n", cardType)
	fmt.Fprintf(b, "- Screen: %s\n", orDefault(screen, "unknown"))
	if g, ok := cardGuidance[string(cardType)]; ok {
		fmt.Fprintf(b, "- Focus: %s\n", g)
	}
	b.WriteString("\n")
}

func writeCrossSell(b *strings.Builder, cross domain.CrossSellContext) {
	b.WriteString("CROSS-SELL INTELLIGENCE:\n")
	if cross.Primary == nil {
		b.WriteString("- No product fits this user right now. Do not pitch anything.\n\n")
		return
	}
	writeRecommendation(b, "Primary", *cross.Primary)
	for _, r := range cross.Secondary {
		writeRecommendation(b, "Secondary", r)
	}
	b.WriteString("\n")
}

func writeRecommendation(b *strings.Builder, label string, r domain.Recommendation) {
	fmt.Fprintf(b, "- %s: %s (%s)\n", label, r.ProductName, r.TriggerKind)
	fmt.Fprintf(b, "  Why: %s\n", r.PromptText)
	fmt.Fprintf(b, "  Call to action: %s\n", r.CallToAction)
	fmt.Fprintf(b, "  Urgency: %s\n", r.Urgency)
	fmt.Fprintf(b, "  Value: %s/year at %.0f%% conversion\n",
		domain.FormatAmount(r.ProjectedAnnualRevenue), r.ConversionProbability*100)
	if r.Confidence != "" {
		fmt.Fprintf(b, "  Confidence: %s, timing: %s\n", r.Confidence, r.Timing)
	}
}

func writeInstructions(b *strings.Builder) {
	b.WriteString("INSTRUCTIONS:\n")
	for i, s := range behavioralInstructions {
		fmt.Fprintf(b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
