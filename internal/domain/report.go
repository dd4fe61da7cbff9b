package domain

import "time"

// Metric names for the scalar response series.
const (
	MetricGlobalMeanTS = "global_mean_ts"
	MetricNino34       = "nino34"
)

// Composite is the across-member mean of a response series for one phase.
// A group with no members has Count 0 and nil Mean; check Defined before use.
type Composite struct {
	Phase   Phase     `json:"phase"`
	Count   int       `json:"count"`
	Members []int     `json:"members,omitempty"`
	Mean    []float64 `json:"mean,omitempty"`
	// Spread is the sample standard deviation across members, nil below two members.
	Spread []float64 `json:"spread,omitempty"`
}

// Defined reports whether the composite has at least one contributing member.
func (c Composite) Defined() bool {
	return c.Count > 0 && c.Mean != nil
}

// CompositeResult groups composites by phase on a common offset axis.
type CompositeResult struct {
	Metric        string              `json:"metric,omitempty"`
	EruptionIndex int                 `json:"eruption_index"`
	Offsets       []int               `json:"offsets"`
	Groups        map[Phase]Composite `json:"groups"`
}

// Group returns the composite for a phase; ok is false when the group is empty.
func (r CompositeResult) Group(p Phase) (Composite, bool) {
	c, found := r.Groups[p]
	return c, found && c.Defined()
}

// ExperimentComparison is a Welch two-sample test between two onsets.
// P is the raw two-sided p-value; no multiple-comparison correction is applied.
type ExperimentComparison struct {
	A      Onset   `json:"a"`
	B      Onset   `json:"b"`
	Metric string  `json:"metric"`
	T      float64 `json:"t"`
	DF     float64 `json:"df"`
	P      float64 `json:"p"`
	NA     int     `json:"n_a"`
	NB     int     `json:"n_b"`
	MeanA  float64 `json:"mean_a"`
	MeanB  float64 `json:"mean_b"`
}

// OffsetComparison repeats the Welch test at every post-eruption offset.
type OffsetComparison struct {
	A       Onset     `json:"a"`
	B       Onset     `json:"b"`
	Metric  string    `json:"metric"`
	Offsets []int     `json:"offsets"`
	T       []float64 `json:"t"`
	P       []float64 `json:"p"`
}

// Comparison kinds reported in ComparisonFailure.
const (
	ComparisonPostWindow = "post_window"
	ComparisonByOffset   = "by_offset"
)

// ComparisonFailure records an onset pair that could not be tested, usually
// because one side has fewer than two members or no variance.
type ComparisonFailure struct {
	A      Onset  `json:"a"`
	B      Onset  `json:"b"`
	Metric string `json:"metric"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

// ExperimentReport is the analysis of one eruption-onset ensemble.
type ExperimentReport struct {
	RunID          string                     `json:"run_id"`
	Onset          Onset                      `json:"onset"`
	Variable       string                     `json:"variable"`
	EruptionIndex  int                        `json:"eruption_index"`
	PostWindow     int                        `json:"post_window"`
	Classification Classification             `json:"classification"`
	Composites     map[string]CompositeResult `json:"composites"`
	// PostWindowMeans holds each member's response averaged over the post
	// window, aligned with Classification.Members.
	PostWindowMeans map[string][]float64 `json:"post_window_means"`
	GeneratedAt     time.Time            `json:"generated_at"`

	// Responses are the post-window-aligned response series by metric.
	Responses map[string]IndexSeries `json:"-"`
}

// SeasonalityReport compares all onset experiments of one run.
type SeasonalityReport struct {
	RunID             string                     `json:"run_id,omitempty"`
	Experiments       map[Onset]ExperimentReport `json:"experiments"`
	Comparisons       []ExperimentComparison     `json:"comparisons"`
	OffsetComparisons []OffsetComparison         `json:"offset_comparisons,omitempty"`
	Failures          []ComparisonFailure        `json:"failures,omitempty"`
	GeneratedAt       time.Time                  `json:"generated_at"`
}
