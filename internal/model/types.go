package model

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// FixedPointType partitions formalized invariants by the objective they drive:
// safety fixed points feed violation degree, critical fixed points feed
// criticality, recovery fixed points feed recovery time.
type FixedPointType string

const (
	FixedPointSafety   FixedPointType = "safety"
	FixedPointCritical FixedPointType = "critical"
	FixedPointRecovery FixedPointType = "recovery"
)

func (t FixedPointType) IsValid() bool {
	switch t {
	case FixedPointSafety, FixedPointCritical, FixedPointRecovery:
		return true
	default:
		return false
	}
}

// FixedPoint is a formalized invariant produced by the external extraction
// step. It is an immutable value record: prototypes share it, never edit it.
type FixedPoint struct {
	Type        FixedPointType `json:"type"`
	Subtype     string         `json:"subtype"`
	Description string         `json:"description"`
	Predicate   string         `json:"predicate"`
	DSLSnippet  string         `json:"dsl_snippet"`
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AccidentPattern is read-only context inferred once per accident case. The
// structural mutator tests membership in its sets to pick relevant operators.
type AccidentPattern struct {
	DrivingStyles        []string `json:"driving_styles"`
	EnvironmentalFactors []string `json:"environmental_factors"`
	SensorIssues         []string `json:"sensor_issues"`
	CriticalInteractions []string `json:"critical_interactions"`
	Severity             Severity `json:"severity"`
}

// Has reports whether the given trait appears in any of the pattern's sets.
func (p AccidentPattern) Has(trait string) bool {
	for _, set := range [][]string{
		p.DrivingStyles,
		p.EnvironmentalFactors,
		p.SensorIssues,
		p.CriticalInteractions,
	} {
		for _, item := range set {
			if item == trait {
				return true
			}
		}
	}
	return false
}

type ParticipantConfig struct {
	Name         string             `json:"name"`
	VehicleType  string             `json:"vehicle_type"`
	BehaviorTags []string           `json:"behavior_tags,omitempty"`
	Attributes   map[string]float64 `json:"attributes,omitempty"`
}

type EnvironmentConfig struct {
	Weather    string             `json:"weather"`
	TimeOfDay  string             `json:"time_of_day"`
	RoadType   string             `json:"road_type"`
	Conditions map[string]float64 `json:"conditions,omitempty"`
}

// ScenarioEvent is one entry of a prototype's event skeleton. Timing and
// magnitudes stay symbolic here; concrete values live in instance parameters.
type ScenarioEvent struct {
	Name       string             `json:"name"`
	Actor      string             `json:"actor"`
	Action     string             `json:"action"`
	Attributes map[string]float64 `json:"attributes,omitempty"`
}

// ParameterRange declares a numeric parameter a prototype exposes to fuzzing.
type ParameterRange struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ScenarioPrototype is the structural template of a scenario: participant set,
// static environment, event skeleton, and the fixed points under test,
// independent of concrete numeric bindings.
type ScenarioPrototype struct {
	VersionedRecord
	TemplateName    string              `json:"template_name"`
	Description     string              `json:"description"`
	Ego             ParticipantConfig   `json:"ego"`
	NPCs            []ParticipantConfig `json:"npcs"`
	Environment     EnvironmentConfig   `json:"environment"`
	Events          []ScenarioEvent     `json:"events"`
	ParameterRanges []ParameterRange    `json:"parameter_ranges"`
	FixedPoints     []FixedPoint        `json:"fixed_points"`
}

// Range returns the declared range for a parameter name.
func (p *ScenarioPrototype) Range(name string) (ParameterRange, bool) {
	for _, r := range p.ParameterRanges {
		if r.Name == name {
			return r, true
		}
	}
	return ParameterRange{}, false
}

// HeadwayViolation is one interval during which the headway invariant was
// violated, with the accumulated deviation over that interval.
type HeadwayViolation struct {
	Start     float64 `json:"t_start"`
	End       float64 `json:"t_end"`
	Deviation float64 `json:"deviation"`
}

type RecoveryStatus struct {
	Recovered     bool    `json:"recovered"`
	TimeToRecover float64 `json:"time_to_recover"`
}

// SimulationResults is the trace summary returned by the external simulator.
// The engine only reads it; producing it is out of scope.
type SimulationResults struct {
	HeadwayViolations              []HeadwayViolation        `json:"headway_violations,omitempty"`
	TotalHeadwayViolationMagnitude float64                   `json:"total_headway_violation_magnitude"`
	MaxLateralDeviation            float64                   `json:"max_lateral_deviation"`
	MinTTC                         float64                   `json:"min_ttc"`
	MinHeadwayDistance             float64                   `json:"min_headway_distance"`
	IsCollision                    bool                      `json:"is_collision"`
	UniqueViolationCount           int                       `json:"unique_violation_count"`
	RecoveryStatus                 map[string]RecoveryStatus `json:"recovery_status,omitempty"`
}

// ScenarioInstance binds a prototype to concrete parameter values. Results is
// nil until the simulator collaborator has executed the instance; fitness is
// undefined before that.
type ScenarioInstance struct {
	VersionedRecord
	ID         string             `json:"id"`
	Prototype  *ScenarioPrototype `json:"prototype"`
	Parameters map[string]float64 `json:"parameters"`
	Results    *SimulationResults `json:"results,omitempty"`
}

// GenerationDiagnostics summarizes one generation of the search loop.
type GenerationDiagnostics struct {
	Generation      int     `json:"generation"`
	PoolSize        int     `json:"pool_size"`
	Duplicates      int     `json:"duplicates"`
	Excluded        int     `json:"excluded"`
	FrontSize       int     `json:"front_size"`
	BestViolation   float64 `json:"best_violation"`
	BestCriticality float64 `json:"best_criticality"`
	MinRecoveryTime float64 `json:"min_recovery_time"`
	MeanDiversity   float64 `json:"mean_diversity"`
}

// RunRecord is the persisted summary of a completed search run.
type RunRecord struct {
	VersionedRecord
	RunID            string                  `json:"run_id"`
	CreatedAtUTC     string                  `json:"created_at_utc"`
	Seed             int64                   `json:"seed"`
	PopulationSize   int                     `json:"population_size"`
	Generations      int                     `json:"generations"`
	FrontInstanceIDs []string                `json:"front_instance_ids"`
	Diagnostics      []GenerationDiagnostics `json:"diagnostics,omitempty"`
}
