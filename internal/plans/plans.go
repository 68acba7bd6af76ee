// Package plans holds the subscription plan catalog.
package plans

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/01moynul/humanize-golang/internal/models"
)

//go:embed plans.yaml
var defaultCatalog []byte

// Catalog is an ordered, read-only set of plans.
type Catalog struct {
	plans  []models.Plan
	bySlug map[string]*models.Plan
}

type file struct {
	Plans []models.Plan `yaml:"plans"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("plans: built-in catalog: %v", err))
	}
	return c
}

// Parse reads a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("plans: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("plans: catalog is empty")
	}

	c := &Catalog{plans: f.Plans, bySlug: make(map[string]*models.Plan, len(f.Plans))}
	for i := range c.plans {
		p := &c.plans[i]
		switch {
		case p.Slug == "":
			return nil, fmt.Errorf("plans: plan %d has no slug", i)
		case p.Credits < 0 || p.CharLimit < 0:
			return nil, fmt.Errorf("plans: %s: negative credits or limit", p.Slug)
		}
		if _, dup := c.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("plans: duplicate slug %q", p.Slug)
		}
		c.bySlug[p.Slug] = p
	}
	return c, nil
}

// Get returns the plan with the slug, or nil.
func (c *Catalog) Get(slug string) *models.Plan {
	return c.bySlug[slug]
}

// All returns a copy of the plans in catalog order.
func (c *Catalog) All() []models.Plan {
	return append([]models.Plan(nil), c.plans...)
}
