package storage

import (
	"encoding/json"
	"errors"

	"scenforge/internal/model"
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeInstance(inst model.ScenarioInstance) ([]byte, error) {
	return json.Marshal(inst)
}

func DecodeInstance(data []byte) (model.ScenarioInstance, error) {
	var inst model.ScenarioInstance
	if err := json.Unmarshal(data, &inst); err != nil {
		return model.ScenarioInstance{}, err
	}
	if err := checkVersion(inst.VersionedRecord); err != nil {
		return model.ScenarioInstance{}, err
	}
	return inst, nil
}

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != model.CurrentSchemaVersion || v.CodecVersion != model.CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
