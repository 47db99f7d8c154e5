package quota

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Unlimited is the swipe limit sentinel for plans without a daily cap.
const Unlimited = -1

// Plan is the allowance granted to a tier at every daily reset.
type Plan struct {
	Tier               string `yaml:"tier"`
	SwipeLimit         int    `yaml:"swipe_limit"`
	SuperlikeAllotment int    `yaml:"superlike_allotment"`
}

// Catalog maps plan tiers to allowances.
type Catalog struct {
	defaultTier string
	plans       map[string]Plan
}

type catalogFile struct {
	DefaultTier string `yaml:"default_tier"`
	Plans       []Plan `yaml:"plans"`
}

// DefaultCatalog is used when no plans file is configured.
//
//	free:    50 swipes/day, 1 superlike
//	plus:    unlimited,     5 superlikes
//	premium: unlimited,    10 superlikes
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog("free", []Plan{
		{Tier: "free", SwipeLimit: 50, SuperlikeAllotment: 1},
		{Tier: "plus", SwipeLimit: Unlimited, SuperlikeAllotment: 5},
		{Tier: "premium", SwipeLimit: Unlimited, SuperlikeAllotment: 10},
	})
	return c
}

// NewCatalog validates plans and builds a catalog.
func NewCatalog(defaultTier string, plans []Plan) (*Catalog, error) {
	c := &Catalog{
		defaultTier: normalizeTier(defaultTier),
		plans:       make(map[string]Plan, len(plans)),
	}
	for _, p := range plans {
		p.Tier = normalizeTier(p.Tier)
		if p.Tier == "" {
			return nil, fmt.Errorf("plan without tier")
		}
		if p.SwipeLimit < Unlimited {
			return nil, fmt.Errorf("plan %q: swipe_limit must be -1 or >= 0", p.Tier)
		}
		if p.SuperlikeAllotment < 0 {
			return nil, fmt.Errorf("plan %q: superlike_allotment must be >= 0", p.Tier)
		}
		c.plans[p.Tier] = p
	}
	if _, ok := c.plans[c.defaultTier]; !ok {
		return nil, fmt.Errorf("default tier %q has no plan", defaultTier)
	}
	return c, nil
}

// LoadCatalog reads the `plans` section of a YAML settings file. An empty
// path yields DefaultCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse plans file: %w", err)
	}
	if len(f.Plans) == 0 {
		return DefaultCatalog(), nil
	}
	if f.DefaultTier == "" {
		f.DefaultTier = f.Plans[0].Tier
	}
	return NewCatalog(f.DefaultTier, f.Plans)
}

// DefaultTier is assigned to accounts created without an explicit plan.
func (c *Catalog) DefaultTier() string { return c.defaultTier }

// Lookup returns the plan for a tier.
func (c *Catalog) Lookup(tier string) (Plan, bool) {
	p, ok := c.plans[normalizeTier(tier)]
	return p, ok
}

// Tiers lists the catalog's tiers, default first, the rest sorted.
func (c *Catalog) Tiers() []string {
	tiers := make([]string, 0, len(c.plans))
	for t := range c.plans {
		if t != c.defaultTier {
			tiers = append(tiers, t)
		}
	}
	sort.Strings(tiers)
	return append([]string{c.defaultTier}, tiers...)
}

// Resolve returns the plan governing a quota state. Unknown tiers keep the
// limits already recorded on the state.
func (c *Catalog) Resolve(s State) Plan {
	if p, ok := c.Lookup(s.PlanTier); ok {
		return p
	}
	return Plan{Tier: s.PlanTier, SwipeLimit: s.SwipeLimit, SuperlikeAllotment: s.SuperlikesAvailable}
}

func normalizeTier(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
