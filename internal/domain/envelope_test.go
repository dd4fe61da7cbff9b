package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRunID = "run-123"

func testMessage() EnsembleMessage {
	return EnsembleMessage{
		RunID:   testRunID,
		Onset:   "January_1x",
		Members: []int{1, 2},
		Time: []time.Time{
			time.Date(1257, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(1257, time.February, 15, 6, 0, 0, 0, time.UTC),
		},
		Lat:  []float64{-5, 5},
		Lon:  []float64{190, 200, 210},
		Data: make([]float64, 2*2*2*3),
	}
}

func TestParseEnsemble(t *testing.T) {
	t.Run("valid envelope", func(t *testing.T) {
		data, err := json.Marshal(testMessage())
		require.NoError(t, err)

		ens, err := ParseEnsemble(RawEvent{Value: data})
		require.NoError(t, err)
		assert.Equal(t, testRunID, ens.RunID)
		assert.Equal(t, January, ens.Onset)
		assert.Equal(t, "TS", ens.Field.Variable)
		assert.Equal(t, Dims{Members: 2, Time: 2, Lat: 2, Lon: 3}, ens.Field.Dims)
		assert.Equal(t, []int{1, 2}, ens.Field.Members())
		assert.Equal(t, time.Date(1257, time.February, 1, 0, 0, 0, 0, time.UTC), ens.Field.Time[1])
		assert.Nil(t, ens.EruptionIndex)
	})

	t.Run("run ID falls back to message key", func(t *testing.T) {
		msg := testMessage()
		msg.RunID = ""
		data, err := json.Marshal(msg)
		require.NoError(t, err)

		ens, err := ParseEnsemble(RawEvent{Key: []byte("key-run"), Value: data})
		require.NoError(t, err)
		assert.Equal(t, "key-run", ens.RunID)
	})

	t.Run("run ID generated when absent", func(t *testing.T) {
		msg := testMessage()
		msg.RunID = ""
		data, err := json.Marshal(msg)
		require.NoError(t, err)

		ens, err := ParseEnsemble(RawEvent{Value: data})
		require.NoError(t, err)
		assert.Len(t, ens.RunID, 36)
	})

	t.Run("steps without time axis", func(t *testing.T) {
		msg := testMessage()
		msg.Time = nil
		msg.Steps = 2
		data, err := json.Marshal(msg)
		require.NoError(t, err)

		ens, err := ParseEnsemble(RawEvent{Value: data})
		require.NoError(t, err)
		assert.False(t, ens.Field.HasTime())
		assert.Equal(t, 2, ens.Field.Dims.Time)
	})

	t.Run("eruption index override", func(t *testing.T) {
		msg := testMessage()
		idx := 1
		msg.EruptionIndex = &idx
		data, err := json.Marshal(msg)
		require.NoError(t, err)

		ens, err := ParseEnsemble(RawEvent{Value: data})
		require.NoError(t, err)
		require.NotNil(t, ens.EruptionIndex)
		assert.Equal(t, 1, *ens.EruptionIndex)
	})

	t.Run("unknown onset", func(t *testing.T) {
		msg := testMessage()
		msg.Onset = "March_1x"
		data, err := json.Marshal(msg)
		require.NoError(t, err)

		_, err = ParseEnsemble(RawEvent{Value: data})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidField))
	})

	t.Run("data length mismatch", func(t *testing.T) {
		msg := testMessage()
		msg.Data = msg.Data[:5]
		data, err := json.Marshal(msg)
		require.NoError(t, err)

		_, err = ParseEnsemble(RawEvent{Value: data})
		require.ErrorIs(t, err, ErrInvalidField)
	})

	t.Run("duplicate member IDs", func(t *testing.T) {
		msg := testMessage()
		msg.Members = []int{5, 5}
		data, err := json.Marshal(msg)
		require.NoError(t, err)

		_, err = ParseEnsemble(RawEvent{Value: data})
		require.ErrorIs(t, err, ErrInvalidField)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseEnsemble(RawEvent{Value: []byte("{invalid json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse ensemble")
	})
}

func TestNewEnsembleMessage_RoundTrip(t *testing.T) {
	field := NewGriddedField([]int{3, 4}, 2, []float64{0}, []float64{190, 200})
	field.Set(1, 1, 0, 1, 2.5)

	msg := NewEnsembleMessage(testRunID, October, field, nil)
	assert.Equal(t, "October_1x", msg.Onset)
	assert.Equal(t, 2, msg.Steps)

	ens, err := msg.Ensemble()
	require.NoError(t, err)
	assert.Equal(t, October, ens.Onset)
	assert.InDelta(t, 2.5, ens.Field.At(1, 1, 0, 1), 1e-12)
}

func TestSerializeReport(t *testing.T) {
	fixed := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	report := ExperimentReport{
		RunID:       testRunID,
		Onset:       April,
		Variable:    "TS",
		GeneratedAt: Now(),
		Responses:   map[string]IndexSeries{MetricNino34: {Region: "nino34"}},
	}

	out, err := SerializeReport(report)
	require.NoError(t, err)
	assert.Equal(t, []byte(testRunID), out.Key)
	assert.Equal(t, "April", out.Headers["onset"])
	assert.Equal(t, "TS", out.Headers["variable"])
	assert.Equal(t, "2025-03-03T12:00:00Z", out.Headers["generated_at"])
	assert.NotContains(t, string(out.Value), "responses")

	var decoded ExperimentReport
	require.NoError(t, json.Unmarshal(out.Value, &decoded))
	assert.Equal(t, April, decoded.Onset)
	assert.Equal(t, fixed, decoded.GeneratedAt)
}
