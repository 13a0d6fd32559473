package search

import (
	"math/rand"

	"scenforge/internal/model"
	"scenforge/internal/policy"
	"scenforge/internal/scenario"
)

func newHeadwayPrototype() *model.ScenarioPrototype {
	return &model.ScenarioPrototype{
		TemplateName: "lead_vehicle_brake",
		Ego:          model.ParticipantConfig{Name: "ego", VehicleType: "sedan"},
		NPCs: []model.ParticipantConfig{
			{Name: "npc_lead", VehicleType: "sedan"},
		},
		Environment: model.EnvironmentConfig{
			Weather:   "clear",
			TimeOfDay: "day",
			RoadType:  "highway",
		},
		Events: []model.ScenarioEvent{
			{Name: "lead_brakes", Actor: "npc_lead", Action: scenario.ActionSuddenBrake},
		},
		ParameterRanges: []model.ParameterRange{
			{Name: "ego_speed", Min: 15, Max: 30},
			{Name: "npc_braking_deceleration", Min: 5, Max: 8},
			{Name: "longitudinal_offset", Min: 10, Max: 40},
		},
		FixedPoints: []model.FixedPoint{
			{Type: model.FixedPointSafety, Subtype: policy.SubtypeSafeHeadway},
			{Type: model.FixedPointRecovery, Subtype: policy.SubtypeSafeDistanceRecovery},
		},
	}
}

// seedPopulation fuzzes n instances off the prototype with a dedicated rng,
// cycling the prototype's fixed points the way the public facade does.
func seedPopulation(proto *model.ScenarioPrototype, n int, seed int64) []*model.ScenarioInstance {
	rng := rand.New(rand.NewSource(seed))
	fuzzer := NewFuzzer(nil)
	out := make([]*model.ScenarioInstance, 0, n)
	for i := 0; i < n; i++ {
		fp := proto.FixedPoints[i%len(proto.FixedPoints)]
		out = append(out, fuzzer.Fuzz(rng, proto, fp))
	}
	return out
}
