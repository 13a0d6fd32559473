package search

import (
	"errors"
	"reflect"
	"testing"

	"scenforge/internal/model"
	"scenforge/internal/policy"
)

func TestSuggestOperatorsGatesOnPattern(t *testing.T) {
	mutator := NewMutator(nil)
	fp := model.FixedPoint{Type: model.FixedPointCritical, Subtype: policy.SubtypeNearCollision}

	matched := mutator.SuggestOperators(fp, model.AccidentPattern{
		DrivingStyles: []string{"aggressive_braking_intent"},
	})
	want := []string{OpParticipantTypeTruck, OpEnvironmentalRain}
	if !reflect.DeepEqual(matched, want) {
		t.Fatalf("suggestions: got %v want %v", matched, want)
	}

	if got := mutator.SuggestOperators(fp, model.AccidentPattern{}); got != nil {
		t.Fatalf("gated rule fired without its trait: %v", got)
	}
}

func TestSuggestOperatorsUngatedRuleAlwaysFires(t *testing.T) {
	mutator := NewMutator(nil)
	fp := model.FixedPoint{Type: model.FixedPointCritical, Subtype: policy.SubtypeSensorAnomaly}

	got := mutator.SuggestOperators(fp, model.AccidentPattern{})
	want := []string{OpEnvironmentalDenseFog, OpBehavioralDistractedDriver}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("suggestions: got %v want %v", got, want)
	}
}

func TestApplyUnknownOperator(t *testing.T) {
	mutator := NewMutator(nil)
	if _, err := mutator.Apply(newHeadwayPrototype(), "teleport_ego"); !errors.Is(err, ErrUnknownOperator) {
		t.Fatalf("expected ErrUnknownOperator, got %v", err)
	}
}

func TestApplyDoesNotAliasInput(t *testing.T) {
	mutator := NewMutator(nil)
	proto := newHeadwayPrototype()

	out, err := mutator.Apply(proto, OpParticipantTypeTruck)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.NPCs[0].VehicleType != "truck" {
		t.Fatalf("operator not applied: %v", out.NPCs[0].VehicleType)
	}
	if proto.NPCs[0].VehicleType != "sedan" {
		t.Fatal("apply mutated its input")
	}

	out.Environment.Conditions = map[string]float64{"road_friction": 0.1}
	out.NPCs[0].BehaviorTags = append(out.NPCs[0].BehaviorTags, "x")
	if proto.Environment.Conditions != nil || len(proto.NPCs[0].BehaviorTags) != 0 {
		t.Fatal("result shares state with its input")
	}
}

func TestApplyEnvironmentalOperators(t *testing.T) {
	mutator := NewMutator(nil)

	fog, err := mutator.Apply(newHeadwayPrototype(), OpEnvironmentalDenseFog)
	if err != nil {
		t.Fatalf("apply fog: %v", err)
	}
	if fog.Environment.Weather != "fog" || fog.Environment.Conditions["fog_density"] != 0.85 {
		t.Fatalf("fog operator result: %+v", fog.Environment)
	}

	night, err := mutator.Apply(newHeadwayPrototype(), OpEnvironmentalNight)
	if err != nil {
		t.Fatalf("apply night: %v", err)
	}
	if night.Environment.TimeOfDay != "night" {
		t.Fatalf("night operator result: %+v", night.Environment)
	}

	glare, err := mutator.Apply(newHeadwayPrototype(), OpEnvironmentalSunGlare)
	if err != nil {
		t.Fatalf("apply glare: %v", err)
	}
	if glare.Environment.Conditions["sun_glare_intensity"] != 0.9 {
		t.Fatalf("glare operator result: %+v", glare.Environment)
	}
}

func TestMutateFoldsAllSuggestedOperators(t *testing.T) {
	mutator := NewMutator(nil)
	proto := newHeadwayPrototype()
	fp := proto.FixedPoints[0]
	pattern := model.AccidentPattern{DrivingStyles: []string{"tailgating"}}

	out, err := mutator.Mutate(proto, fp, pattern)
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	foundTag := false
	for _, tag := range out.NPCs[0].BehaviorTags {
		if tag == TagAggressiveCloseFollow {
			foundTag = true
		}
	}
	if !foundTag {
		t.Fatalf("aggressive driver tag missing: %v", out.NPCs[0].BehaviorTags)
	}
	if out.Environment.Conditions["road_friction"] != 0.45 {
		t.Fatalf("wet road condition missing: %v", out.Environment.Conditions)
	}
	if len(proto.NPCs[0].BehaviorTags) != 0 {
		t.Fatal("mutate touched its input")
	}
}

func TestMutateWithoutMatchingRuleCopies(t *testing.T) {
	mutator := NewMutator(nil)
	proto := newHeadwayPrototype()

	out, err := mutator.Mutate(proto, proto.FixedPoints[1], model.AccidentPattern{})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if out == proto {
		t.Fatal("mutate returned the input pointer")
	}
	if !reflect.DeepEqual(out, proto) {
		t.Fatal("no-rule mutate should be content-identical to its input")
	}

	out.NPCs[0].VehicleType = "bus"
	if proto.NPCs[0].VehicleType != "sedan" {
		t.Fatal("mutate result aliases its input")
	}
}

func TestMutateLeavesFixedPointsUntouched(t *testing.T) {
	mutator := NewMutator(nil)
	proto := newHeadwayPrototype()
	fp := model.FixedPoint{Type: model.FixedPointCritical, Subtype: policy.SubtypeSensorAnomaly}

	out, err := mutator.Mutate(proto, fp, model.AccidentPattern{})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if !reflect.DeepEqual(out.FixedPoints, proto.FixedPoints) {
		t.Fatalf("fixed points changed: %v", out.FixedPoints)
	}
}
