// Package application orchestrates the scoring domain against the storage
// ports: it resolves rule-sets from event metadata, serves live or frozen
// results, and performs the one-time finalization freeze.
package application

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/bandwagonhq/podium/internal/domain"
)

// Package-level validator instance for configuration and aggregate
// validation. Uses go-playground/validator v10 struct tags.
var validate = validator.New()

// EngineConfig is the YAML-loadable configuration for the results engine.
// The zero value (via DefaultEngineConfig) is fully usable; config exists
// for deployments that accumulated historical scoring identifiers.
type EngineConfig struct {
	// RuleSetAliases maps historical free-form scoring identifiers found
	// in event metadata onto canonical rule-set names. Years of admin
	// edits produced identifiers like "noise-meter-v2" or "2023"; the
	// alias table lets those resolve without touching stored events.
	// Identifiers absent from the table fall through to canonical
	// resolution, and anything still unrecognized resolves to legacy.
	RuleSetAliases map[string]string `yaml:"ruleset_aliases" validate:"max=100,dive,oneof=legacy crowd-noise visual-presentation"`

	// Preview controls rate limiting of live preview computation.
	Preview PreviewConfig `yaml:"preview"`
}

// PreviewConfig caps how often the live preview may recompute per event.
// Admin run-of-show dashboards poll aggressively during voting; each poll
// is a full cohort read plus recomputation, so previews are throttled at
// the aggregate-source boundary.
type PreviewConfig struct {
	// RatePerSecond is the sustained preview recomputation rate per
	// event. Zero disables throttling.
	RatePerSecond float64 `yaml:"rate_per_second" validate:"min=0,max=1000"`

	// Burst allows short spikes above the sustained rate.
	Burst int `yaml:"burst" validate:"min=0,max=1000"`
}

// DefaultEngineConfig returns a configuration with no aliases and preview
// throttling suitable for a single venue's admin dashboard.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RuleSetAliases: map[string]string{},
		Preview: PreviewConfig{
			RatePerSecond: 5,
			Burst:         10,
		},
	}
}

// LoadEngineConfig parses and validates YAML configuration, overlaying it
// on the defaults. Unknown fields are rejected to catch typos early.
func LoadEngineConfig(data []byte) (EngineConfig, error) {
	cfg := DefaultEngineConfig()

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return EngineConfig{}, fmt.Errorf("failed to decode engine config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c EngineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("engine config validation failed: %w", err)
	}
	return nil
}

// ResolveRuleSet resolves an event's scoring version identifier through
// the alias table, falling back to canonical resolution. Like the domain
// resolver it is total: the answer for anything unrecognized is legacy.
func (c EngineConfig) ResolveRuleSet(identifier string) domain.RuleSet {
	key := strings.ToLower(strings.TrimSpace(identifier))
	if canonical, ok := c.RuleSetAliases[key]; ok {
		return domain.ResolveRuleSet(canonical)
	}
	return domain.ResolveRuleSet(identifier)
}
