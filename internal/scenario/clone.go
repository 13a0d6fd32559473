package scenario

import (
	"scenforge/internal/model"
)

// ClonePrototype deep-copies every mutable nested structure of a prototype so
// that editing the copy never aliases the original's participants, events, or
// ranges. Fixed points are immutable value records and are copied by value.
func ClonePrototype(p *model.ScenarioPrototype) *model.ScenarioPrototype {
	if p == nil {
		return nil
	}
	out := *p
	out.Ego = cloneParticipant(p.Ego)
	out.NPCs = make([]model.ParticipantConfig, len(p.NPCs))
	for i := range p.NPCs {
		out.NPCs[i] = cloneParticipant(p.NPCs[i])
	}
	out.Environment = cloneEnvironment(p.Environment)
	out.Events = make([]model.ScenarioEvent, len(p.Events))
	for i := range p.Events {
		out.Events[i] = cloneEvent(p.Events[i])
	}
	out.ParameterRanges = append([]model.ParameterRange(nil), p.ParameterRanges...)
	out.FixedPoints = append([]model.FixedPoint(nil), p.FixedPoints...)
	return &out
}

// CloneInstance copies an instance with a shallow prototype reference and a
// deep parameter map, preserving the parent for diversity comparison while
// fuzzing edits the copy. Simulation results do not carry over.
func CloneInstance(inst *model.ScenarioInstance, newID string) *model.ScenarioInstance {
	if inst == nil {
		return nil
	}
	out := *inst
	out.ID = newID
	out.Parameters = cloneFloatMap(inst.Parameters)
	out.Results = nil
	return &out
}

func cloneParticipant(p model.ParticipantConfig) model.ParticipantConfig {
	out := p
	out.BehaviorTags = append([]string(nil), p.BehaviorTags...)
	out.Attributes = cloneFloatMap(p.Attributes)
	return out
}

func cloneEnvironment(e model.EnvironmentConfig) model.EnvironmentConfig {
	out := e
	out.Conditions = cloneFloatMap(e.Conditions)
	return out
}

func cloneEvent(ev model.ScenarioEvent) model.ScenarioEvent {
	out := ev
	out.Attributes = cloneFloatMap(ev.Attributes)
	return out
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
