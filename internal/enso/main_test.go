package enso

import (
	"testing"
	"time"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func monthly(startYear int, start time.Month, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(startYear, start+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
	}
	return out
}

// pacificField is spatially uniform at every (member, step): the value comes
// from fn. The grid is 5 latitudes (-10..10) by 10 longitudes (150°W..90°W).
func pacificField(members, steps int, fn func(m, t int) float64) domain.GriddedField {
	ids := make([]int, members)
	for i := range ids {
		ids[i] = i
	}
	f := domain.NewGriddedField(ids, steps, linspace(-10, 10, 5), linspace(-150, -90, 10))
	for m := 0; m < members; m++ {
		for t := 0; t < steps; t++ {
			plane := f.Plane(m, t)
			v := fn(m, t)
			for c := range plane {
				plane[c] = v
			}
		}
	}
	return f
}

func series(members []int, rows ...[]float64) domain.IndexSeries {
	return domain.IndexSeries{Region: "nino34", Members: members, Values: rows}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
