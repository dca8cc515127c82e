// Package catalog loads the cross-sell product table.
//
// A Catalog is built once at startup and treated as read-only afterwards.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/ashureev/fincoach/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Product is a catalog entry with its static ranking data.
type Product struct {
	Key           string
	Name          string
	Category      string
	Priority      int
	AnnualRevenue decimal.Decimal
	Conversion    float64
	Pitch         string
	CallToAction  string
	Urgency       string
}

// Catalog maps products and triggers to their static metadata.
type Catalog struct {
	products map[string]Product
	triggers map[domain.TriggerKind][]string
}

type fileProduct struct {
	Key           string  `yaml:"key"`
	Name          string  `yaml:"name"`
	Category      string  `yaml:"category"`
	Priority      int     `yaml:"priority"`
	AnnualRevenue float64 `yaml:"annual_revenue"`
	Conversion    float64 `yaml:"conversion"`
	Pitch         string  `yaml:"pitch"`
	CallToAction  string  `yaml:"call_to_action"`
	Urgency       string  `yaml:"urgency"`
}

type file struct {
	Products []fileProduct       `yaml:"products"`
	Triggers map[string][]string `yaml:"triggers"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path. An empty path returns Default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		products: make(map[string]Product, len(f.Products)),
		triggers: make(map[domain.TriggerKind][]string, len(f.Triggers)),
	}
	for _, p := range f.Products {
		if p.Key == "" {
			return nil, fmt.Errorf("catalog product without key")
		}
		if _, dup := c.products[p.Key]; dup {
			return nil, fmt.Errorf("duplicate catalog product %q", p.Key)
		}
		if p.Conversion < 0 || p.Conversion > 1 {
			return nil, fmt.Errorf("product %q: conversion %v outside [0,1]", p.Key, p.Conversion)
		}
		name := p.Name
		if name == "" {
			name = p.Key
		}
		c.products[p.Key] = Product{
			Key:           p.Key,
			Name:          name,
			Category:      p.Category,
			Priority:      p.Priority,
			AnnualRevenue: decimal.NewFromFloat(p.AnnualRevenue),
			Conversion:    p.Conversion,
			Pitch:         p.Pitch,
			CallToAction:  p.CallToAction,
			Urgency:       p.Urgency,
		}
	}
	for kind, keys := range f.Triggers {
		if !domain.KnownTriggerKind(domain.TriggerKind(kind)) {
			return nil, fmt.Errorf("unknown trigger %q", kind)
		}
		for _, k := range keys {
			if _, ok := c.products[k]; !ok {
				return nil, fmt.Errorf("trigger %q references unknown product %q", kind, k)
			}
		}
		c.triggers[domain.TriggerKind(kind)] = append([]string(nil), keys...)
	}
	return c, nil
}

// Product looks up a product by key.
func (c *Catalog) Product(key string) (Product, bool) {
	p, ok := c.products[key]
	return p, ok
}

// ProductsFor returns the product keys a trigger recommends, in catalog order.
func (c *Catalog) ProductsFor(kind domain.TriggerKind) []string {
	return append([]string(nil), c.triggers[kind]...)
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}
