package search

import (
	"math/rand"
	"reflect"
	"testing"

	"scenforge/internal/model"
	"scenforge/internal/scenario"
)

func TestFuzzUnknownSubtypeYieldsBaseline(t *testing.T) {
	proto := newHeadwayPrototype()
	fuzzer := NewFuzzer(nil)
	rng := rand.New(rand.NewSource(1))

	fp := model.FixedPoint{Type: model.FixedPointSafety, Subtype: "Unmapped Fixed Point"}
	inst := fuzzer.Fuzz(rng, proto, fp)

	baseline := scenario.NewInstance(proto)
	if !reflect.DeepEqual(inst.Parameters, baseline.Parameters) {
		t.Fatalf("unknown subtype should fall back to the baseline midpoints: got %v want %v",
			inst.Parameters, baseline.Parameters)
	}
}

func TestFuzzSamplesWithinPerturbationRanges(t *testing.T) {
	proto := newHeadwayPrototype()
	fuzzer := NewFuzzer(nil)
	rng := rand.New(rand.NewSource(7))
	fp := proto.FixedPoints[0]

	bounds := map[string][2]float64{
		"npc_braking_deceleration": {8, 12},
		"longitudinal_offset":      {10, 40},
		"ego_speed":                {10, 35},
	}
	for draw := 0; draw < 1000; draw++ {
		inst := fuzzer.Fuzz(rng, proto, fp)
		for name, b := range bounds {
			v, ok := inst.Parameters[name]
			if !ok {
				t.Fatalf("draw %d: sensitive parameter %s not bound", draw, name)
			}
			if v < b[0] || v > b[1] {
				t.Fatalf("draw %d: %s = %v outside [%v, %v]", draw, name, v, b[0], b[1])
			}
		}
	}
}

func TestFuzzIsReproducibleForASeed(t *testing.T) {
	proto := newHeadwayPrototype()
	fuzzer := NewFuzzer(nil)
	fp := proto.FixedPoints[0]

	a := fuzzer.Fuzz(rand.New(rand.NewSource(99)), proto, fp)
	b := fuzzer.Fuzz(rand.New(rand.NewSource(99)), proto, fp)

	if !reflect.DeepEqual(a.Parameters, b.Parameters) {
		t.Fatalf("same seed produced different parameters:\n%v\n%v", a.Parameters, b.Parameters)
	}
	if a.ID == b.ID {
		t.Fatal("instances should get distinct ids")
	}
}

func TestFuzzLeavesNonSensitiveParametersAtMidpoint(t *testing.T) {
	proto := newHeadwayPrototype()
	proto.ParameterRanges = append(proto.ParameterRanges, model.ParameterRange{Name: "recovery_margin", Min: 2, Max: 6})

	fuzzer := NewFuzzer(nil)
	inst := fuzzer.Fuzz(rand.New(rand.NewSource(3)), proto, proto.FixedPoints[0])

	if got := inst.Parameters["recovery_margin"]; got != 4.0 {
		t.Fatalf("non-sensitive parameter moved off its midpoint: got %v want 4.0", got)
	}
	if got := inst.Parameters[scenario.BrakeTriggerParam]; got != 3.0 {
		t.Fatalf("brake trigger default lost: got %v want 3.0", got)
	}
}
