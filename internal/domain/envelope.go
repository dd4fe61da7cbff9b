package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ParseEnsemble decodes a source-topic message into an Ensemble. When the
// envelope carries no run ID the message key is used, then a fresh UUID.
func ParseEnsemble(raw RawEvent) (Ensemble, error) {
	ens, err := ParseEnsembleJSON(raw.Value)
	if err != nil {
		return Ensemble{}, err
	}
	if ens.RunID == "" && len(raw.Key) > 0 {
		ens.RunID = string(raw.Key)
	}
	if ens.RunID == "" {
		ens.RunID = uuid.NewString()
	}
	return ens, nil
}

// ParseEnsembleJSON decodes and validates an EnsembleMessage.
func ParseEnsembleJSON(data []byte) (Ensemble, error) {
	var msg EnsembleMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Ensemble{}, fmt.Errorf("parse ensemble: %w", err)
	}
	return msg.Ensemble()
}

// ReadEnsembleFile decodes one envelope stored on disk.
func ReadEnsembleFile(path string) (Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Ensemble{}, err
	}
	ens, err := ParseEnsembleJSON(data)
	if err != nil {
		return Ensemble{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return ens, nil
}

// Ensemble converts the envelope into a validated Ensemble.
func (m EnsembleMessage) Ensemble() (Ensemble, error) {
	onset, ok := ParseOnset(m.Onset)
	if !ok {
		return Ensemble{}, fmt.Errorf("%w: unknown onset %q", ErrInvalidField, m.Onset)
	}

	steps := m.Steps
	if len(m.Time) > 0 {
		if steps != 0 && steps != len(m.Time) {
			return Ensemble{}, fmt.Errorf("%w: steps %d disagrees with %d timestamps", ErrInvalidField, steps, len(m.Time))
		}
		steps = len(m.Time)
	}

	variable := m.Variable
	if variable == "" {
		variable = "TS"
	}

	field := GriddedField{
		Variable:  variable,
		Dims:      Dims{Members: len(m.Members), Time: steps, Lat: len(m.Lat), Lon: len(m.Lon)},
		MemberIDs: m.Members,
		Time:      normalizeMonths(m.Time),
		Lat:       m.Lat,
		Lon:       m.Lon,
		Data:      m.Data,
	}
	if err := field.Validate(); err != nil {
		return Ensemble{}, fmt.Errorf("ensemble %s: %w", m.Onset, err)
	}

	return Ensemble{
		RunID:         m.RunID,
		Onset:         onset,
		Field:         field,
		EruptionIndex: m.EruptionIndex,
	}, nil
}

// NewEnsembleMessage builds the envelope for a field.
func NewEnsembleMessage(runID string, onset Onset, field GriddedField, eruptionIndex *int) EnsembleMessage {
	msg := EnsembleMessage{
		RunID:         runID,
		Onset:         onset.Label(),
		Variable:      field.Variable,
		Members:       field.Members(),
		Time:          slices.Clone(field.Time),
		Lat:           slices.Clone(field.Lat),
		Lon:           slices.Clone(field.Lon),
		Data:          field.Data,
		EruptionIndex: eruptionIndex,
	}
	if !field.HasTime() {
		msg.Steps = field.Dims.Time
	}
	return msg
}

// SerializeReport marshals an ExperimentReport for the sink topic, keyed by run ID.
func SerializeReport(report ExperimentReport) (OutputEvent, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize report: %w", err)
	}
	return OutputEvent{
		Key:   []byte(report.RunID),
		Value: data,
		Headers: map[string]string{
			"onset":        string(report.Onset),
			"variable":     report.Variable,
			"generated_at": report.GeneratedAt.Format(time.RFC3339),
		},
	}, nil
}

// normalizeMonths truncates timestamps to the first of their month in UTC.
func normalizeMonths(ts []time.Time) []time.Time {
	if len(ts) == 0 {
		return nil
	}
	out := make([]time.Time, len(ts))
	for i, t := range ts {
		t = t.UTC()
		out[i] = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return out
}
