package enso

import (
	"fmt"
	"math"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// TTestResult is the outcome of Welch's unequal-variance t-test.
type TTestResult struct {
	T     float64
	DF    float64
	P     float64
	NA    int
	NB    int
	MeanA float64
	MeanB float64
}

// WelchTTest compares the means of two independent samples without assuming
// equal variances. P is two-sided. Both samples need at least two values and
// at least one of them must vary.
func WelchTTest(a, b []float64) (TTestResult, error) {
	na, nb := len(a), len(b)
	if na < 2 || nb < 2 {
		return TTestResult{}, fmt.Errorf("%w: sample sizes %d and %d", domain.ErrInsufficientSample, na, nb)
	}
	ma, _ := stats.Mean(a)
	mb, _ := stats.Mean(b)
	va, _ := stats.SampleVariance(a)
	vb, _ := stats.SampleVariance(b)

	sa, sb := va/float64(na), vb/float64(nb)
	se2 := sa + sb
	if se2 == 0 || math.IsNaN(se2) {
		return TTestResult{}, fmt.Errorf("%w: no variance in either sample", domain.ErrInsufficientSample)
	}

	t := (ma - mb) / math.Sqrt(se2)
	df := se2 * se2 / (sa*sa/float64(na-1) + sb*sb/float64(nb-1))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := math.Min(1, 2*dist.Survival(math.Abs(t)))

	return TTestResult{T: t, DF: df, P: p, NA: na, NB: nb, MeanA: ma, MeanB: mb}, nil
}

type onsetPair struct{ a, b domain.Onset }

// canonicalPairs lists every onset pair in reporting order.
func canonicalPairs() []onsetPair {
	var pairs []onsetPair
	for i, a := range domain.Onsets {
		for _, b := range domain.Onsets[i+1:] {
			pairs = append(pairs, onsetPair{a, b})
		}
	}
	return pairs
}

// byOnset keys a label map by canonical onset. Labels that are not one of the
// four onsets are ignored; two labels naming the same onset are an error.
func byOnset[T any](in map[string]T) (map[domain.Onset]T, error) {
	out := make(map[domain.Onset]T, len(in))
	seen := make(map[domain.Onset]string, len(in))
	for label, v := range in {
		o, ok := domain.ParseOnset(label)
		if !ok {
			continue
		}
		if prev, dup := seen[o]; dup {
			return nil, fmt.Errorf("%w: labels %q and %q both name %s", domain.ErrInvalidParameter, prev, label, o)
		}
		seen[o] = label
		out[o] = v
	}
	return out, nil
}

// CompareExperiments runs a Welch test on a per-member metric for each pair of
// onsets present, in the order Jan/Apr, Jan/Jul, Jan/Oct, Apr/Jul, Apr/Oct,
// Jul/Oct. Labels such as "January_1x" are accepted. P-values are raw.
func CompareExperiments(values map[string][]float64, metric string) ([]domain.ExperimentComparison, error) {
	samples, err := byOnset(values)
	if err != nil {
		return nil, err
	}

	var out []domain.ExperimentComparison
	for _, pr := range canonicalPairs() {
		a, okA := samples[pr.a]
		b, okB := samples[pr.b]
		if !okA || !okB {
			continue
		}
		res, err := WelchTTest(a, b)
		if err != nil {
			return nil, fmt.Errorf("compare %s vs %s (%s): %w", pr.a, pr.b, metric, err)
		}
		out = append(out, domain.ExperimentComparison{
			A: pr.a, B: pr.b, Metric: metric,
			T: res.T, DF: res.DF, P: res.P,
			NA: res.NA, NB: res.NB,
			MeanA: res.MeanA, MeanB: res.MeanB,
		})
	}
	return out, nil
}

// CompareByOffset runs the Welch test separately at every post-eruption
// offset. Each series must be aligned on the post window (member × offset)
// and all series must have the same length.
func CompareByOffset(series map[string]domain.IndexSeries, metric string) ([]domain.OffsetComparison, error) {
	byO, err := byOnset(series)
	if err != nil {
		return nil, err
	}

	steps := -1
	for o, s := range byO {
		if steps >= 0 && s.Steps() != steps {
			return nil, fmt.Errorf("%w: %s series has %d offsets, expected %d", domain.ErrInvalidParameter, o, s.Steps(), steps)
		}
		steps = s.Steps()
	}

	var out []domain.OffsetComparison
	for _, pr := range canonicalPairs() {
		sa, okA := byO[pr.a]
		sb, okB := byO[pr.b]
		if !okA || !okB {
			continue
		}
		cmp := domain.OffsetComparison{
			A: pr.a, B: pr.b, Metric: metric,
			Offsets: make([]int, steps),
			T:       make([]float64, steps),
			P:       make([]float64, steps),
		}
		for k := 0; k < steps; k++ {
			res, err := WelchTTest(column(sa, k), column(sb, k))
			if err != nil {
				return nil, fmt.Errorf("compare %s vs %s (%s) at offset %d: %w", pr.a, pr.b, metric, k, err)
			}
			cmp.Offsets[k], cmp.T[k], cmp.P[k] = k, res.T, res.P
		}
		out = append(out, cmp)
	}
	return out, nil
}

func column(s domain.IndexSeries, k int) []float64 {
	col := make([]float64, len(s.Values))
	for m, row := range s.Values {
		col[m] = row[k]
	}
	return col
}
