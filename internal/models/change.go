package models

// Interpretation classifies the practical magnitude of a metric change
// between two runs.
type Interpretation string

const (
	// InterpretationNoise marks deltas within sampling noise.
	InterpretationNoise Interpretation = "noise"
	// InterpretationNotable marks statistically significant deltas under the
	// major threshold.
	InterpretationNotable Interpretation = "notable"
	// InterpretationMajor marks significant deltas of 10 percentage points
	// or more.
	InterpretationMajor Interpretation = "major"
)

// MetricChange is the result of a two-proportion z-test on one metric for one
// brand across two runs.
type MetricChange struct {
	Metric         string         `json:"metric"`
	Label          string         `json:"label"`
	ValueA         float64        `json:"value_a"`
	ValueB         float64        `json:"value_b"`
	DeltaPP        float64        `json:"delta_pp"`
	ZScore         float64        `json:"z_score"`
	PValue         float64        `json:"p_value"`
	Significant    bool           `json:"significant"`
	Interpretation Interpretation `json:"interpretation"`
}

// ChangeRecord holds all metric comparisons for one brand between a baseline
// run (A) and a comparison run (B). Recommendation strength is not a
// proportion, so it gets a plain delta with no significance test.
type ChangeRecord struct {
	Brand   string         `json:"brand"`
	NA      int            `json:"n_a"`
	NB      int            `json:"n_b"`
	Metrics []MetricChange `json:"metrics"`

	StrengthA     float64 `json:"strength_a"`
	StrengthB     float64 `json:"strength_b"`
	StrengthDelta float64 `json:"strength_delta"`
}
