package scenario

import (
	"github.com/google/uuid"

	"scenforge/internal/model"
)

// ActionSuddenBrake marks an event skeleton entry as a braking action. A
// prototype declaring one gets the dependent brake-trigger parameter bound
// even when no range for it was declared.
const ActionSuddenBrake = "sudden_brake"

// BrakeTriggerParam is the dependent brake-trigger time parameter.
const BrakeTriggerParam = "brake_trigger_time"

// Default trigger window, seconds from scenario start.
var defaultBrakeTriggerRange = model.ParameterRange{Name: BrakeTriggerParam, Min: 1.0, Max: 5.0}

// NewInstance binds a prototype to its deterministic baseline: every declared
// range at its midpoint, plus dependent defaults implied by the event
// skeleton. The returned instance owns its parameter map.
func NewInstance(p *model.ScenarioPrototype) *model.ScenarioInstance {
	params := make(map[string]float64, len(p.ParameterRanges)+1)
	for _, r := range p.ParameterRanges {
		params[r.Name] = midpoint(r)
	}
	if declaresBrakingAction(p) {
		if _, bound := params[BrakeTriggerParam]; !bound {
			params[BrakeTriggerParam] = midpoint(defaultBrakeTriggerRange)
		}
	}
	return &model.ScenarioInstance{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: model.CurrentSchemaVersion,
			CodecVersion:  model.CurrentCodecVersion,
		},
		ID:         uuid.NewString(),
		Prototype:  p,
		Parameters: params,
	}
}

func midpoint(r model.ParameterRange) float64 {
	return r.Min + (r.Max-r.Min)/2
}

func declaresBrakingAction(p *model.ScenarioPrototype) bool {
	for _, ev := range p.Events {
		if ev.Action == ActionSuddenBrake {
			return true
		}
	}
	return false
}
