package enso

import (
	"math"
	"testing"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPhase_Thresholds(t *testing.T) {
	s := series([]int{0, 1, 2, 3, 4},
		repeat(0.5, 6),
		repeat(0.5+1e-9, 6),
		repeat(-0.5, 6),
		repeat(-0.5-1e-9, 6),
		repeat(0, 6),
	)

	cls, err := ClassifyPhase(s, WithWindow(6))
	require.NoError(t, err)

	assert.Equal(t, map[int]domain.Phase{
		0: domain.Neutral,
		1: domain.ElNino,
		2: domain.Neutral,
		3: domain.LaNina,
		4: domain.Neutral,
	}, cls.Labels())
	assert.Equal(t, 6, cls.EruptionIndex)
	assert.Equal(t, 6, cls.Window)
	assert.InDelta(t, 0.5, cls.Members[0].WindowMean, 0)
	assert.Equal(t, 3, cls.Count(domain.Neutral))
}

func TestClassifyPhase_UsesWindowBeforeEruption(t *testing.T) {
	row := []float64{9, 9, 1, 1, 1, -9, -9}
	cls, err := ClassifyPhase(series([]int{7}, row), WithEruptionIndex(5), WithWindow(3))
	require.NoError(t, err)

	require.Len(t, cls.Members, 1)
	assert.Equal(t, 7, cls.Members[0].Member)
	assert.InDelta(t, 1.0, cls.Members[0].WindowMean, 1e-12)
	assert.Equal(t, domain.ElNino, cls.Members[0].Phase)
}

func TestClassifyPhase_CustomThresholds(t *testing.T) {
	s := series([]int{0, 1}, repeat(0.8, 12), repeat(-0.8, 12))
	cls, err := ClassifyPhase(s, WithThresholds(-1, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, cls.Count(domain.Neutral))
	assert.InDelta(t, -1.0, cls.Members[0].Low, 0)
	assert.InDelta(t, 1.0, cls.Members[0].High, 0)
}

func TestClassifyPhase_StdScaled(t *testing.T) {
	// Population σ of {0, 2} is 1, so thresholds are ±0.5 and the mean 1 is El Nino.
	s := series([]int{0, 1}, []float64{0, 2}, []float64{-0.1, 0.1})
	cls, err := ClassifyPhase(s, WithWindow(2), WithStdScaledThresholds(0.5))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, cls.Members[0].High, 1e-12)
	assert.InDelta(t, -0.5, cls.Members[0].Low, 1e-12)
	assert.Equal(t, domain.ElNino, cls.Members[0].Phase)
	assert.Equal(t, domain.Neutral, cls.Members[1].Phase)
	assert.InDelta(t, 0.5, cls.StdScale, 0)
}

func TestClassifyPhase_Errors(t *testing.T) {
	s := series([]int{0}, repeat(0, 12))

	tests := []struct {
		name string
		opts []ClassifyOption
		want error
	}{
		{"window longer than history", []ClassifyOption{WithEruptionIndex(3), WithWindow(6)}, domain.ErrInsufficientHistory},
		{"eruption beyond record", []ClassifyOption{WithEruptionIndex(13), WithWindow(6)}, domain.ErrInsufficientRecord},
		{"default index beyond record", []ClassifyOption{WithWindow(13)}, domain.ErrInsufficientRecord},
		{"zero window", []ClassifyOption{WithWindow(0)}, domain.ErrInvalidParameter},
		{"inverted thresholds", []ClassifyOption{WithThresholds(1, -1)}, domain.ErrInvalidParameter},
		{"negative std scale", []ClassifyOption{WithStdScaledThresholds(-1)}, domain.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ClassifyPhase(s, tt.opts...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClassifyPhase_EruptionAtRecordEnd(t *testing.T) {
	cls, err := ClassifyPhase(series([]int{0}, repeat(-2, 12)), WithEruptionIndex(12))
	require.NoError(t, err)
	assert.Equal(t, domain.LaNina, cls.Members[0].Phase)
}

func TestClassifyPhase_NaNWindowMean(t *testing.T) {
	s := series([]int{0, 7},
		[]float64{1, 1, 1, 1, 0, 0},
		[]float64{math.NaN(), 1, 1, 1, 0, 0},
	)

	_, err := ClassifyPhase(s, WithWindow(4))
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "member 7")
}
