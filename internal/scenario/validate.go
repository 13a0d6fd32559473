package scenario

import (
	"errors"
	"fmt"

	"scenforge/internal/model"
)

var ErrNoFixedPoints = errors.New("prototype has no fixed points")

// ConfigurationError reports a malformed prototype or fixed point. It is
// fatal: the search never retries it.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid scenario configuration: %s: %s", e.Field, e.Reason)
}

// ValidatePrototype checks the structural invariants a prototype must satisfy
// before it may enter the search population.
func ValidatePrototype(p *model.ScenarioPrototype) error {
	if p == nil {
		return &ConfigurationError{Field: "prototype", Reason: "is nil"}
	}
	if p.TemplateName == "" {
		return &ConfigurationError{Field: "template_name", Reason: "is required"}
	}
	if len(p.FixedPoints) == 0 {
		return ErrNoFixedPoints
	}
	for i, fp := range p.FixedPoints {
		if !fp.Type.IsValid() {
			return &ConfigurationError{
				Field:  fmt.Sprintf("fixed_points[%d].type", i),
				Reason: fmt.Sprintf("unknown type %q", fp.Type),
			}
		}
		if fp.Subtype == "" {
			return &ConfigurationError{
				Field:  fmt.Sprintf("fixed_points[%d].subtype", i),
				Reason: "is required",
			}
		}
	}

	seen := make(map[string]struct{}, len(p.ParameterRanges))
	for i, r := range p.ParameterRanges {
		if r.Name == "" {
			return &ConfigurationError{
				Field:  fmt.Sprintf("parameter_ranges[%d].name", i),
				Reason: "is required",
			}
		}
		if _, dup := seen[r.Name]; dup {
			return &ConfigurationError{
				Field:  fmt.Sprintf("parameter_ranges[%d]", i),
				Reason: fmt.Sprintf("duplicate range name %q", r.Name),
			}
		}
		seen[r.Name] = struct{}{}
		if r.Min > r.Max {
			return &ConfigurationError{
				Field:  fmt.Sprintf("parameter_ranges[%d]", i),
				Reason: fmt.Sprintf("min %v greater than max %v", r.Min, r.Max),
			}
		}
	}

	actors := make(map[string]struct{}, len(p.NPCs)+1)
	actors[p.Ego.Name] = struct{}{}
	for _, npc := range p.NPCs {
		actors[npc.Name] = struct{}{}
	}
	for i, ev := range p.Events {
		if ev.Actor == "" {
			continue
		}
		if _, ok := actors[ev.Actor]; !ok {
			return &ConfigurationError{
				Field:  fmt.Sprintf("events[%d].actor", i),
				Reason: fmt.Sprintf("references unknown participant %q", ev.Actor),
			}
		}
	}
	return nil
}
