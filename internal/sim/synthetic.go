package sim

import (
	"context"
	"math"

	"scenforge/internal/model"
	"scenforge/internal/scenario"
)

// Synthetic is a deterministic closed-form kinematic approximation of a
// lead-vehicle braking encounter. It exists so the engine can be exercised
// end to end without the external simulator; it is not a physics model and
// production runs replace it with the real collaborator.
type Synthetic struct{}

func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

func (*Synthetic) Name() string {
	return "synthetic_kinematics"
}

const (
	egoReactionTime = 1.2 // seconds
	egoMaxDecel     = 6.0 // m/s^2
	safeHeadwayGain = 1.0 // seconds of gap per m/s of speed
)

func (*Synthetic) Simulate(ctx context.Context, inst *model.ScenarioInstance) (*model.SimulationResults, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	egoSpeed := param(inst, "ego_speed", 20.0)
	offset := param(inst, "longitudinal_offset", 25.0)
	leadDecel := param(inst, "npc_braking_deceleration", 6.0)
	brakeAt := param(inst, scenario.BrakeTriggerParam, 3.0)

	// Both vehicles cruise at egoSpeed until the lead brakes; the ego reacts
	// after a fixed delay and brakes at its own limit. Closed-form stopping
	// distances give the minimum gap.
	leadStopDist := egoSpeed * egoSpeed / (2 * leadDecel)
	egoStopDist := egoSpeed*egoReactionTime + egoSpeed*egoSpeed/(2*egoMaxDecel)
	minHeadway := offset + leadStopDist - egoStopDist
	collision := minHeadway <= 0
	if minHeadway < 0 {
		minHeadway = 0
	}

	closingSpeed := 0.3*egoSpeed + 1
	minTTC := minHeadway / closingSpeed

	safeDistance := safeHeadwayGain * egoSpeed
	violationDeficit := safeDistance - minHeadway

	results := &model.SimulationResults{
		MinHeadwayDistance: minHeadway,
		MinTTC:             minTTC,
		IsCollision:        collision,
	}

	if violationDeficit > 0 {
		magnitude := violationDeficit * 2.0
		results.HeadwayViolations = []model.HeadwayViolation{
			{Start: brakeAt, End: brakeAt + 2.0, Deviation: violationDeficit},
		}
		results.TotalHeadwayViolationMagnitude = magnitude
		results.UniqueViolationCount++
	}

	lateral := math.Abs(param(inst, "lateral_offset", 0)) + 0.04*param(inst, "crosswind_strength", 0)
	results.MaxLateralDeviation = lateral
	if lateral > 0.8 {
		results.UniqueViolationCount++
	}
	if param(inst, "fog_density", 0)+param(inst, "sensor_noise_level", 0) > 0.8 {
		results.UniqueViolationCount++
	}
	if collision {
		results.UniqueViolationCount++
	}

	results.RecoveryStatus = recoveryStatuses(inst, collision, minHeadway, safeDistance, brakeAt, egoSpeed, leadDecel)
	return results, nil
}

// recoveryStatuses reports one status per recovery fixed point attached to
// the prototype. A collision or a near-zero residual gap is unrecoverable.
func recoveryStatuses(inst *model.ScenarioInstance, collision bool, minHeadway, safeDistance, brakeAt, egoSpeed, leadDecel float64) map[string]model.RecoveryStatus {
	var statuses map[string]model.RecoveryStatus
	for _, fp := range inst.Prototype.FixedPoints {
		if fp.Type != model.FixedPointRecovery {
			continue
		}
		if statuses == nil {
			statuses = map[string]model.RecoveryStatus{}
		}
		recovered := !collision && minHeadway > 0.2*safeDistance
		status := model.RecoveryStatus{Recovered: recovered}
		if recovered {
			leadStopTime := egoSpeed / leadDecel
			deficit := math.Max(0, safeDistance-minHeadway)
			status.TimeToRecover = brakeAt + leadStopTime + deficit/5.0
		}
		statuses[fp.Subtype] = status
	}
	return statuses
}

func param(inst *model.ScenarioInstance, name string, fallback float64) float64 {
	if v, ok := inst.Parameters[name]; ok {
		return v
	}
	return fallback
}
