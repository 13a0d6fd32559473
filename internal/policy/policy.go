// Package policy holds the static lookup tables that steer the search: which
// parameters are sensitive to a fixed point, how each parameter is perturbed,
// and which structural operators a fixed point suggests. The tables are
// immutable data loaded at startup, not branches in the algorithm code, so
// search behavior stays auditable and reproducible given a seed.
package policy

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"scenforge/internal/model"
	"scenforge/internal/scenario"
)

type Strategy string

// StrategyBoundedUniform draws one sample uniformly from [Min, Max].
const StrategyBoundedUniform Strategy = "bounded_uniform"

// Perturbation names the distribution used to resample one parameter.
type Perturbation struct {
	Strategy Strategy `yaml:"strategy"`
	Min      float64  `yaml:"min"`
	Max      float64  `yaml:"max"`
}

// MutationRule maps a fixed-point subtype, optionally gated on accident
// pattern membership, to the structural operators worth applying.
type MutationRule struct {
	Subtype     string   `yaml:"subtype"`
	RequiresAny []string `yaml:"requires_any,omitempty"`
	Operators   []string `yaml:"operators"`
}

// Tables is the immutable policy set. Construct via Default or Load; never
// mutate after construction.
type Tables struct {
	sensitivity  map[model.FixedPointType]map[string][]string
	defaultRange Perturbation
	perturbation map[string]Perturbation
	rules        []MutationRule
}

// Fixed-point subtypes with built-in policy entries.
const (
	SubtypeSafeHeadway          = "Safe Headway Fixed Point"
	SubtypeLaneKeeping          = "Lane Keeping Fixed Point"
	SubtypeSensorAnomaly        = "Sensor Anomaly Fixed Point"
	SubtypeNearCollision        = "Near-Collision Interaction Fixed Point"
	SubtypeSafeDistanceRecovery = "Safe Distance Recovery Fixed Point"
	SubtypeLaneKeepingRecovery  = "Lane Keeping Recovery Fixed Point"
)

// Default returns the built-in tables.
func Default() *Tables {
	return &Tables{
		sensitivity: map[model.FixedPointType]map[string][]string{
			model.FixedPointSafety: {
				SubtypeSafeHeadway: {"npc_braking_deceleration", "longitudinal_offset", "ego_speed"},
				SubtypeLaneKeeping: {"crosswind_strength", "lateral_offset", "ego_speed"},
			},
			model.FixedPointCritical: {
				SubtypeSensorAnomaly: {"fog_density", "sun_glare_intensity", "sensor_noise_level", "anomaly_duration"},
				SubtypeNearCollision: {"npc_cut_in_gap", "npc_lateral_speed", "ego_speed"},
			},
			model.FixedPointRecovery: {
				SubtypeSafeDistanceRecovery: {"npc_braking_deceleration", "longitudinal_offset", "recovery_margin"},
				SubtypeLaneKeepingRecovery:  {"crosswind_strength", "lateral_offset"},
			},
		},
		defaultRange: Perturbation{Strategy: StrategyBoundedUniform, Min: 0, Max: 1},
		perturbation: map[string]Perturbation{
			"npc_braking_deceleration": {Strategy: StrategyBoundedUniform, Min: 8.0, Max: 12.0},
			"longitudinal_offset":      {Strategy: StrategyBoundedUniform, Min: 10.0, Max: 40.0},
			"ego_speed":                {Strategy: StrategyBoundedUniform, Min: 10.0, Max: 35.0},
			"fog_density":              {Strategy: StrategyBoundedUniform, Min: 0.5, Max: 1.0},
			"sensor_noise_level":       {Strategy: StrategyBoundedUniform, Min: 0.0, Max: 0.5},
			"anomaly_duration":         {Strategy: StrategyBoundedUniform, Min: 0.5, Max: 5.0},
			"lateral_offset":           {Strategy: StrategyBoundedUniform, Min: -1.5, Max: 1.5},
			"crosswind_strength":       {Strategy: StrategyBoundedUniform, Min: 0.0, Max: 15.0},
			"npc_cut_in_gap":           {Strategy: StrategyBoundedUniform, Min: 5.0, Max: 20.0},
			"npc_lateral_speed":        {Strategy: StrategyBoundedUniform, Min: 0.5, Max: 3.0},
		},
		rules: []MutationRule{
			{
				Subtype:     SubtypeNearCollision,
				RequiresAny: []string{"aggressive_braking_intent"},
				Operators:   []string{"participant_type_truck", "environmental_rain"},
			},
			{
				Subtype:   SubtypeSensorAnomaly,
				Operators: []string{"environmental_dense_fog", "behavioral_distracted_driver"},
			},
			{
				Subtype:     SubtypeSafeHeadway,
				RequiresAny: []string{"tailgating", "aggressive_braking_intent"},
				Operators:   []string{"behavioral_aggressive_driver", "environmental_wet_road"},
			},
			{
				Subtype:     SubtypeLaneKeeping,
				RequiresAny: []string{"night_driving", "sun_glare"},
				Operators:   []string{"environmental_night", "environmental_sun_glare"},
			},
		},
	}
}

type tablesYAML struct {
	Sensitivity  map[string]map[string][]string `yaml:"sensitivity"`
	Perturbation struct {
		Default    *Perturbation           `yaml:"default"`
		Parameters map[string]Perturbation `yaml:"parameters"`
	} `yaml:"perturbation"`
	MutationRules []MutationRule `yaml:"mutation_rules"`
}

// Load parses a YAML policy document, overlaying it on the defaults. Sections
// present in the document replace the corresponding default table wholesale.
func Load(data []byte) (*Tables, error) {
	var doc tablesYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse policy tables: %w", err)
	}

	out := Default()
	if doc.Sensitivity != nil {
		sensitivity := make(map[model.FixedPointType]map[string][]string, len(doc.Sensitivity))
		for rawType, bySubtype := range doc.Sensitivity {
			fpType := model.FixedPointType(rawType)
			if !fpType.IsValid() {
				return nil, &scenario.ConfigurationError{
					Field:  "sensitivity." + rawType,
					Reason: "unknown fixed point type",
				}
			}
			entries := make(map[string][]string, len(bySubtype))
			for subtype, params := range bySubtype {
				entries[subtype] = append([]string(nil), params...)
			}
			sensitivity[fpType] = entries
		}
		out.sensitivity = sensitivity
	}
	if doc.Perturbation.Default != nil {
		out.defaultRange = *doc.Perturbation.Default
	}
	if doc.Perturbation.Parameters != nil {
		out.perturbation = doc.Perturbation.Parameters
	}
	if doc.MutationRules != nil {
		out.rules = doc.MutationRules
	}

	if err := out.validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tables) validate() error {
	check := func(field string, p Perturbation) error {
		if p.Strategy != StrategyBoundedUniform {
			return &scenario.ConfigurationError{Field: field, Reason: fmt.Sprintf("unknown strategy %q", p.Strategy)}
		}
		if p.Min > p.Max {
			return &scenario.ConfigurationError{Field: field, Reason: fmt.Sprintf("min %v greater than max %v", p.Min, p.Max)}
		}
		return nil
	}
	if err := check("perturbation.default", t.defaultRange); err != nil {
		return err
	}
	for name, p := range t.perturbation {
		if err := check("perturbation.parameters."+name, p); err != nil {
			return err
		}
	}
	for i, rule := range t.rules {
		if rule.Subtype == "" {
			return &scenario.ConfigurationError{
				Field:  fmt.Sprintf("mutation_rules[%d].subtype", i),
				Reason: "is required",
			}
		}
		if len(rule.Operators) == 0 {
			return &scenario.ConfigurationError{
				Field:  fmt.Sprintf("mutation_rules[%d].operators", i),
				Reason: "is required",
			}
		}
	}
	return nil
}

// SensitiveParams returns the parameters sensitive to the given fixed point,
// in table order. Unknown subtypes yield nil: fuzzing then stops at the
// baseline.
func (t *Tables) SensitiveParams(fp model.FixedPoint) []string {
	bySubtype, ok := t.sensitivity[fp.Type]
	if !ok {
		return nil
	}
	return append([]string(nil), bySubtype[fp.Subtype]...)
}

// PerturbationFor returns the strategy for a parameter, falling back to the
// default [0,1] bounded uniform range for parameters without a table entry.
func (t *Tables) PerturbationFor(param string) Perturbation {
	if p, ok := t.perturbation[param]; ok {
		return p
	}
	return t.defaultRange
}

// Rules returns the mutation suggestion rules in declaration order.
func (t *Tables) Rules() []MutationRule {
	return append([]MutationRule(nil), t.rules...)
}

// KnownParameters lists every parameter with an explicit perturbation entry.
func (t *Tables) KnownParameters() []string {
	names := make([]string, 0, len(t.perturbation))
	for name := range t.perturbation {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
