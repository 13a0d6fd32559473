package search

import (
	"fmt"

	"scenforge/internal/model"
	"scenforge/internal/policy"
	"scenforge/internal/scenario"
)

// Structural operators form a closed set. Resolving any other name is a hard
// error, not a silent no-op.
const (
	OpParticipantTypeTruck       = "participant_type_truck"
	OpParticipantTypeMotorcycle  = "participant_type_motorcycle"
	OpEnvironmentalRain          = "environmental_rain"
	OpEnvironmentalDenseFog      = "environmental_dense_fog"
	OpEnvironmentalWetRoad       = "environmental_wet_road"
	OpEnvironmentalNight         = "environmental_night"
	OpEnvironmentalSunGlare      = "environmental_sun_glare"
	OpBehavioralDistractedDriver = "behavioral_distracted_driver"
	OpBehavioralAggressiveDriver = "behavioral_aggressive_driver"
)

// Behavioral tags attached by mutation. Downstream fuzzing and simulation
// interpret them; Distracted_Unpredictable implies wider action-timing
// variance.
const (
	TagDistractedUnpredictable = "Distracted_Unpredictable"
	TagAggressiveCloseFollow   = "Aggressive_CloseFollow"
)

// Mutator applies topology-changing edits to scenario prototypes: participant
// substitution, environmental perturbation, behavioral tagging. Fixed points
// pass through untouched; mutation changes the structure under test, never
// the invariants being tested.
type Mutator struct {
	tables *policy.Tables
}

func NewMutator(tables *policy.Tables) *Mutator {
	if tables == nil {
		tables = policy.Default()
	}
	return &Mutator{tables: tables}
}

// SuggestOperators evaluates the mutation rule table against the fixed point
// and the accident pattern. Rules gate on subtype and, when RequiresAny is
// set, on at least one trait being present in the pattern. No match yields an
// empty list, making Mutate a structural no-op beyond the deep copy.
func (m *Mutator) SuggestOperators(fp model.FixedPoint, pattern model.AccidentPattern) []string {
	var out []string
	for _, rule := range m.tables.Rules() {
		if rule.Subtype != fp.Subtype {
			continue
		}
		if len(rule.RequiresAny) > 0 {
			matched := false
			for _, trait := range rule.RequiresAny {
				if pattern.Has(trait) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, rule.Operators...)
	}
	return out
}

// Apply performs a single named structural edit on a deep copy of the
// prototype. The original is untouched. Unknown names return
// ErrUnknownOperator.
func (m *Mutator) Apply(proto *model.ScenarioPrototype, name string) (*model.ScenarioPrototype, error) {
	if proto == nil {
		return nil, &scenario.ConfigurationError{Field: "prototype", Reason: "is nil"}
	}
	out := scenario.ClonePrototype(proto)
	switch name {
	case OpParticipantTypeTruck:
		substituteLeadVehicle(out, "truck")
	case OpParticipantTypeMotorcycle:
		substituteLeadVehicle(out, "motorcycle")
	case OpEnvironmentalRain:
		out.Environment.Weather = "rain"
		setCondition(out, "road_friction", 0.55)
	case OpEnvironmentalDenseFog:
		out.Environment.Weather = "fog"
		setCondition(out, "fog_density", 0.85)
	case OpEnvironmentalWetRoad:
		setCondition(out, "road_friction", 0.45)
	case OpEnvironmentalNight:
		out.Environment.TimeOfDay = "night"
		setCondition(out, "ambient_light", 0.1)
	case OpEnvironmentalSunGlare:
		out.Environment.TimeOfDay = "dusk"
		setCondition(out, "sun_glare_intensity", 0.9)
	case OpBehavioralDistractedDriver:
		tagLeadVehicle(out, TagDistractedUnpredictable)
	case OpBehavioralAggressiveDriver:
		tagLeadVehicle(out, TagAggressiveCloseFollow)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperator, name)
	}
	return out, nil
}

// Mutate folds the full suggested operator list onto one working copy in
// suggestion order. The result is always a new prototype, even when no rule
// matches.
func (m *Mutator) Mutate(proto *model.ScenarioPrototype, fp model.FixedPoint, pattern model.AccidentPattern) (*model.ScenarioPrototype, error) {
	names := m.SuggestOperators(fp, pattern)
	out := scenario.ClonePrototype(proto)
	if out == nil {
		return nil, &scenario.ConfigurationError{Field: "prototype", Reason: "is nil"}
	}
	for _, name := range names {
		next, err := m.Apply(out, name)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

func substituteLeadVehicle(p *model.ScenarioPrototype, vehicleType string) {
	if len(p.NPCs) == 0 {
		return
	}
	p.NPCs[0].VehicleType = vehicleType
}

func tagLeadVehicle(p *model.ScenarioPrototype, tag string) {
	if len(p.NPCs) == 0 {
		return
	}
	for _, existing := range p.NPCs[0].BehaviorTags {
		if existing == tag {
			return
		}
	}
	p.NPCs[0].BehaviorTags = append(p.NPCs[0].BehaviorTags, tag)
}

func setCondition(p *model.ScenarioPrototype, key string, value float64) {
	if p.Environment.Conditions == nil {
		p.Environment.Conditions = map[string]float64{}
	}
	p.Environment.Conditions[key] = value
}
