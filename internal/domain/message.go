package domain

import (
	"context"
	"time"
)

// EnsembleMessage is the JSON envelope the upstream loader publishes for one
// eruption-onset experiment. Data is flat member × time × lat × lon.
type EnsembleMessage struct {
	RunID    string      `json:"run_id,omitempty"`
	Onset    string      `json:"onset"`
	Variable string      `json:"variable,omitempty"`
	Members  []int       `json:"members"`
	Steps    int         `json:"steps,omitempty"` // required when Time is omitted
	Time     []time.Time `json:"time,omitempty"`
	Lat      []float64   `json:"lat"`
	Lon      []float64   `json:"lon"`
	Data     []float64   `json:"data"`

	// EruptionIndex overrides the configured eruption position for this run.
	EruptionIndex *int `json:"eruption_index,omitempty"`
}

// Ensemble is a decoded, validated experiment ready for analysis.
type Ensemble struct {
	RunID         string
	Onset         Onset
	Field         GriddedField
	EruptionIndex *int
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
