package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/fincoach/internal/domain"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("expected products in default catalog")
	}

	kinds := []domain.TriggerKind{
		domain.TriggerHighSpending, domain.TriggerLowSavingsRate,
		domain.TriggerEmergencyFundGoal, domain.TriggerInvestmentGoal,
		domain.TriggerYoungProfessional, domain.TriggerFamilyStage,
	}
	for _, k := range kinds {
		if len(c.ProductsFor(k)) == 0 {
			t.Errorf("trigger %s has no products", k)
		}
	}

	p, ok := c.Product("sip_mutual_fund")
	if !ok {
		t.Fatal("sip_mutual_fund missing")
	}
	if p.Priority != 2 || p.AnnualRevenue.IntPart() != 3600 {
		t.Errorf("unexpected sip entry: %+v", p)
	}
}

func TestParseRejectsUnknownProductReference(t *testing.T) {
	t.Parallel()

	doc := `
products:
  - key: a
    priority: 1
triggers:
  highSpending: [a, b]
`
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), `unknown product "b"`) {
		t.Fatalf("expected unknown product error, got %v", err)
	}
}

func TestParseRejectsUnknownTrigger(t *testing.T) {
	t.Parallel()

	doc := `
products:
  - key: a
    priority: 1
triggers:
  highspending: [a]
`
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), `unknown trigger "highspending"`) {
		t.Fatalf("expected unknown trigger error, got %v", err)
	}
}

func TestParseRejectsDuplicatesAndBadConversion(t *testing.T) {
	t.Parallel()

	dup := "products:\n  - key: a\n  - key: a\n"
	if _, err := Parse([]byte(dup)); err == nil {
		t.Error("expected duplicate key error")
	}

	bad := "products:\n  - key: a\n    conversion: 1.5\n"
	if _, err := Parse([]byte(bad)); err == nil {
		t.Error("expected conversion range error")
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "products:\n  - key: fd\n    name: Fixed Deposit\n    priority: 4\n    annual_revenue: 950.5\n    conversion: 0.3\ntriggers:\n  lowSavingsRate: [fd]\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p, _ := c.Product("fd")
	if p.AnnualRevenue.String() != "950.5" {
		t.Errorf("revenue = %s, want 950.5", p.AnnualRevenue)
	}
	if got := c.ProductsFor(domain.TriggerLowSavingsRate); len(got) != 1 || got[0] != "fd" {
		t.Errorf("ProductsFor = %v", got)
	}
}

func TestProductsForReturnsCopy(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	keys := c.ProductsFor(domain.TriggerHighSpending)
	keys[0] = "mutated"
	if c.ProductsFor(domain.TriggerHighSpending)[0] == "mutated" {
		t.Error("ProductsFor leaked internal slice")
	}
}
