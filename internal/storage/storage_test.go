package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"scenforge/internal/model"
)

func testInstance(id string) model.ScenarioInstance {
	return model.ScenarioInstance{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: model.CurrentSchemaVersion,
			CodecVersion:  model.CurrentCodecVersion,
		},
		ID: id,
		Prototype: &model.ScenarioPrototype{
			TemplateName: "lead_vehicle_brake",
			Ego:          model.ParticipantConfig{Name: "ego", VehicleType: "sedan"},
			FixedPoints: []model.FixedPoint{
				{Type: model.FixedPointSafety, Subtype: "Safe Headway Fixed Point"},
			},
		},
		Parameters: map[string]float64{"ego_speed": 22.5},
		Results:    &model.SimulationResults{MinTTC: 1.4, MinHeadwayDistance: 6.1},
	}
}

func testRun(id string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: model.CurrentSchemaVersion,
			CodecVersion:  model.CurrentCodecVersion,
		},
		RunID:            id,
		CreatedAtUTC:     "2026-08-30T10:00:00Z",
		Seed:             42,
		PopulationSize:   8,
		Generations:      3,
		FrontInstanceIDs: []string{"inst-1"},
	}
}

func TestMemoryStoreInstanceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	want := testInstance("inst-1")
	if err := store.SaveInstance(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.GetInstance(ctx, "inst-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", got, want)
	}

	if _, ok, err := store.GetInstance(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing instance: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.SaveRun(ctx, testRun(fmt.Sprintf("run-%d", i))); err != nil {
			t.Fatalf("save run %d: %v", i, err)
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 3 || runs[0].RunID != "run-2" || runs[2].RunID != "run-0" {
		t.Fatalf("ordering wrong: %+v", runs)
	}

	limited, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].RunID != "run-2" {
		t.Fatalf("limit wrong: %+v", limited)
	}
}

func TestMemoryStoreSaveRunUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := testRun("run-1")
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save: %v", err)
	}
	run.Generations = 9
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("resave: %v", err)
	}

	got, ok, err := store.GetRun(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Generations != 9 {
		t.Fatalf("upsert lost update: %+v", got)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("upsert duplicated the run: %d entries", len(runs))
	}
}

func TestCodecRoundTrip(t *testing.T) {
	inst := testInstance("inst-1")
	payload, err := EncodeInstance(inst)
	if err != nil {
		t.Fatalf("encode instance: %v", err)
	}
	decoded, err := DecodeInstance(payload)
	if err != nil {
		t.Fatalf("decode instance: %v", err)
	}
	if !reflect.DeepEqual(decoded, inst) {
		t.Fatalf("instance codec mismatch:\n%+v\n%+v", decoded, inst)
	}

	run := testRun("run-1")
	payload, err = EncodeRun(run)
	if err != nil {
		t.Fatalf("encode run: %v", err)
	}
	decodedRun, err := DecodeRun(payload)
	if err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if !reflect.DeepEqual(decodedRun, run) {
		t.Fatalf("run codec mismatch:\n%+v\n%+v", decodedRun, run)
	}
}

func TestCodecRejectsVersionMismatch(t *testing.T) {
	inst := testInstance("inst-1")
	inst.SchemaVersion = 99
	payload, err := EncodeInstance(inst)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeInstance(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}

	run := testRun("run-1")
	run.CodecVersion = 0
	payload, err = EncodeRun(run)
	if err != nil {
		t.Fatalf("encode run: %v", err)
	}
	if _, err := DecodeRun(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestNewStoreKinds(t *testing.T) {
	store, err := NewStore("memory", "")
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("unexpected store type: %T", store)
	}

	if store, err := NewStore("", ""); err != nil {
		t.Fatalf("default store: %v", err)
	} else if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("default should be memory, got %T", store)
	}

	if _, err := NewStore("cassandra", ""); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestCloseIfSupportedNoCloser(t *testing.T) {
	if err := CloseIfSupported(NewMemoryStore()); err != nil {
		t.Fatalf("memory store close: %v", err)
	}
}
