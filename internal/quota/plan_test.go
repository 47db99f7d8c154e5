package quota

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, "free", c.DefaultTier())

	p, ok := c.Lookup("PLUS")
	require.True(t, ok)
	assert.Equal(t, Unlimited, p.SwipeLimit)
	assert.Equal(t, 5, p.SuperlikeAllotment)
}

func TestLoadCatalog_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_tier: basic
plans:
  - tier: basic
    swipe_limit: 20
    superlike_allotment: 0
  - tier: gold
    swipe_limit: -1
    superlike_allotment: 3
reserve:
  - id: "r1"
`), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "basic", c.DefaultTier())

	p, ok := c.Lookup("gold")
	require.True(t, ok)
	assert.Equal(t, 3, p.SuperlikeAllotment)
}

func TestLoadCatalog_EmptyPathUsesDefaults(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	_, ok := c.Lookup("premium")
	assert.True(t, ok)
}

func TestNewCatalog_Rejects(t *testing.T) {
	_, err := NewCatalog("free", []Plan{{Tier: "free", SwipeLimit: -2}})
	assert.Error(t, err)

	_, err = NewCatalog("gold", []Plan{{Tier: "free", SwipeLimit: 10}})
	assert.Error(t, err)
}

func TestCatalog_ResolveUnknownTierKeepsState(t *testing.T) {
	c := DefaultCatalog()
	p := c.Resolve(State{PlanTier: "legacy", SwipeLimit: 12, SuperlikesAvailable: 2})
	assert.Equal(t, 12, p.SwipeLimit)
	assert.Equal(t, 2, p.SuperlikeAllotment)
}

func TestCatalog_TiersDefaultFirst(t *testing.T) {
	assert.Equal(t, []string{"free", "plus", "premium"}, DefaultCatalog().Tiers())
}
