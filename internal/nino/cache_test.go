package nino

import (
	"sync"
	"testing"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexer_MatchesUncached(t *testing.T) {
	f := domain.NewGriddedField([]int{0, 1, 2}, 4, linspace(-10, 10, 5), linspace(150, 280, 14))
	fill(f, func(m, tt int, lat, lon float64) float64 { return float64(m) + float64(tt)*0.1 + lat*0.01 + lon*0.001 })

	x := NewIndexer(8)
	for _, r := range []domain.Region{domain.Nino3, domain.Nino34, domain.Nino4, domain.Global} {
		want, err := ComputeRegionIndex(f, r)
		require.NoError(t, err)

		got, err := x.Region(f, r)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		// Second call hits the cache.
		got, err = x.Region(f, r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 4, x.Len())
}

func TestIndexer_SharedGridDifferentData(t *testing.T) {
	lat, lon := []float64{0}, []float64{200, 210}
	a := domain.NewGriddedField([]int{0}, 1, lat, lon)
	b := domain.NewGriddedField([]int{0}, 1, lat, lon)
	fill(a, func(_, _ int, _, _ float64) float64 { return 1 })
	fill(b, func(_, _ int, _, _ float64) float64 { return 2 })

	x := NewIndexer(4)
	sa, err := x.Nino34(a)
	require.NoError(t, err)
	sb, err := x.Nino34(b)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, sa.Values[0][0], 1e-12)
	assert.InDelta(t, 2.0, sb.Values[0][0], 1e-12)
	assert.Equal(t, 1, x.Len())
}

func TestIndexer_Eviction(t *testing.T) {
	f := domain.NewGriddedField([]int{0}, 1, linspace(-10, 10, 3), linspace(0, 350, 36))
	x := NewIndexer(2)

	_, err := x.Nino34(f)
	require.NoError(t, err)
	_, err = x.GlobalMean(f)
	require.NoError(t, err)
	_, err = x.Region(f, domain.Nino3)
	require.NoError(t, err)
	assert.Equal(t, 2, x.Len())

	// Nino34 was least recently used and is gone.
	_, ok := x.cache.get(selectionKey(f, domain.Nino34))
	assert.False(t, ok)
	_, ok = x.cache.get(selectionKey(f, domain.Nino3))
	assert.True(t, ok)
}

func TestIndexer_DoesNotCacheFailures(t *testing.T) {
	f := domain.NewGriddedField([]int{0}, 1, []float64{0}, []float64{0})
	x := NewIndexer(4)

	_, err := x.Nino34(f)
	require.ErrorIs(t, err, domain.ErrRegionOutOfBounds)
	assert.Equal(t, 0, x.Len())
}

func TestIndexer_ConcurrentUse(t *testing.T) {
	f := domain.NewGriddedField([]int{0, 1}, 2, linspace(-10, 10, 5), linspace(150, 280, 14))
	fill(f, func(m, _ int, _, _ float64) float64 { return float64(m) })
	x := NewIndexer(1)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := domain.Nino34
			if i%2 == 0 {
				r = domain.Nino4
			}
			s, err := x.Region(f, r)
			assert.NoError(t, err)
			assert.InDelta(t, 1.0, s.Values[1][0], 1e-12)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, x.Len())
}

func TestSelectionKey_DependsOnGrid(t *testing.T) {
	a := domain.NewGriddedField([]int{0}, 1, []float64{0}, []float64{200})
	b := domain.NewGriddedField([]int{0}, 1, []float64{0}, []float64{201})
	assert.NotEqual(t, selectionKey(a, domain.Nino34), selectionKey(b, domain.Nino34))
	assert.NotEqual(t, selectionKey(a, domain.Nino34), selectionKey(a, domain.Nino4))
}
