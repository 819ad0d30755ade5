package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandwagonhq/podium/internal/domain"
)

// TestLoadEngineConfig covers YAML parsing, default overlay, strict field
// checking, and tag validation.
func TestLoadEngineConfig(t *testing.T) {
	t.Run("valid config with aliases", func(t *testing.T) {
		cfg, err := LoadEngineConfig([]byte(`
ruleset_aliases:
  noise-meter-v2: crowd-noise
  "2024": visual-presentation
preview:
  rate_per_second: 2
  burst: 4
`))
		require.NoError(t, err)
		assert.Equal(t, domain.RuleSetCrowdNoise, cfg.ResolveRuleSet("noise-meter-v2"))
		assert.Equal(t, domain.RuleSetVisualPresentation, cfg.ResolveRuleSet("2024"))
		assert.Equal(t, 2.0, cfg.Preview.RatePerSecond)
	})

	t.Run("empty config keeps defaults", func(t *testing.T) {
		cfg, err := LoadEngineConfig([]byte(""))
		require.NoError(t, err)
		assert.Equal(t, DefaultEngineConfig().Preview, cfg.Preview)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		_, err := LoadEngineConfig([]byte("rulset_aliases: {}\n"))
		assert.Error(t, err)
	})

	t.Run("alias to unknown rule-set rejected", func(t *testing.T) {
		_, err := LoadEngineConfig([]byte(`
ruleset_aliases:
  v9: hologram-judging
`))
		assert.Error(t, err)
	})

	t.Run("negative preview rate rejected", func(t *testing.T) {
		_, err := LoadEngineConfig([]byte(`
preview:
  rate_per_second: -1
`))
		assert.Error(t, err)
	})
}

// TestEngineConfigResolveRuleSet verifies alias lookup order and the
// legacy fallback for unrecognized identifiers.
func TestEngineConfigResolveRuleSet(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.RuleSetAliases = map[string]string{"db-meter": "crowd-noise"}

	tests := []struct {
		name       string
		identifier string
		want       domain.RuleSet
	}{
		{"alias hit", "db-meter", domain.RuleSetCrowdNoise},
		{"alias hit with folding", "  DB-Meter ", domain.RuleSetCrowdNoise},
		{"canonical passthrough", "visual-presentation", domain.RuleSetVisualPresentation},
		{"unknown falls to legacy", "battle-mode", domain.RuleSetLegacy},
		{"empty falls to legacy", "", domain.RuleSetLegacy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.ResolveRuleSet(tt.identifier))
		})
	}
}
