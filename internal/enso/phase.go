package enso

import (
	"fmt"
	"math"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/montanaflynn/stats"
)

// Default classification parameters.
const (
	DefaultWindow     = 12
	DefaultLow        = -0.5
	DefaultHigh       = 0.5
	DefaultPostWindow = 24
)

type classifyOptions struct {
	eruptionIndex int
	window        int
	low, high     float64
	stdScale      float64
}

// ClassifyOption configures ClassifyPhase.
type ClassifyOption func(*classifyOptions)

// WithEruptionIndex sets the step at which the eruption happens. Without it
// the eruption is assumed to sit exactly one window into the record.
func WithEruptionIndex(i int) ClassifyOption {
	return func(o *classifyOptions) { o.eruptionIndex = i }
}

// WithWindow sets the number of pre-eruption months averaged.
func WithWindow(n int) ClassifyOption {
	return func(o *classifyOptions) { o.window = n }
}

// WithThresholds sets fixed phase thresholds.
func WithThresholds(low, high float64) ClassifyOption {
	return func(o *classifyOptions) {
		o.low, o.high = low, high
		o.stdScale = 0
	}
}

// WithStdScaledThresholds uses ±k times each member's population standard
// deviation over the window as that member's thresholds.
func WithStdScaledThresholds(k float64) ClassifyOption {
	return func(o *classifyOptions) { o.stdScale = k }
}

// ClassifyPhase labels each member El Nino, La Nina or Neutral from the mean
// Niño 3.4 value over the window before the eruption. A mean strictly above
// the high threshold is El Nino, strictly below the low threshold La Nina;
// anything else, including a mean exactly on a threshold, is Neutral.
func ClassifyPhase(nino34 domain.IndexSeries, opts ...ClassifyOption) (domain.Classification, error) {
	o := classifyOptions{eruptionIndex: -1, window: DefaultWindow, low: DefaultLow, high: DefaultHigh}
	for _, opt := range opts {
		opt(&o)
	}
	if o.eruptionIndex < 0 {
		o.eruptionIndex = o.window
	}

	if o.window < 1 {
		return domain.Classification{}, fmt.Errorf("%w: window %d", domain.ErrInvalidParameter, o.window)
	}
	if o.stdScale < 0 {
		return domain.Classification{}, fmt.Errorf("%w: std scale %g", domain.ErrInvalidParameter, o.stdScale)
	}
	if o.stdScale == 0 && o.low > o.high {
		return domain.Classification{}, fmt.Errorf("%w: low threshold %g above high %g", domain.ErrInvalidParameter, o.low, o.high)
	}
	e, n := o.eruptionIndex, o.window
	if e-n < 0 {
		return domain.Classification{}, fmt.Errorf("%w: window of %d months before index %d",
			domain.ErrInsufficientHistory, n, e)
	}
	if e > nino34.Steps() {
		return domain.Classification{}, fmt.Errorf("%w: eruption index %d beyond %d steps",
			domain.ErrInsufficientRecord, e, nino34.Steps())
	}

	cls := domain.Classification{
		EruptionIndex: e,
		Window:        n,
		StdScale:      o.stdScale,
		Members:       make([]domain.MemberPhase, 0, len(nino34.Values)),
	}
	for i, row := range nino34.Values {
		window := row[e-n : e]
		mean, err := stats.Mean(window)
		if err != nil {
			return domain.Classification{}, fmt.Errorf("member %d window mean: %w", nino34.Members[i], err)
		}
		if !finite(mean) {
			return domain.Classification{}, fmt.Errorf("%w: member %d window mean is %g",
				domain.ErrInvalidParameter, nino34.Members[i], mean)
		}
		low, high := o.low, o.high
		if o.stdScale > 0 {
			sd, err := stats.StandardDeviationPopulation(window)
			if err != nil {
				return domain.Classification{}, fmt.Errorf("member %d window spread: %w", nino34.Members[i], err)
			}
			low, high = -o.stdScale*sd, o.stdScale*sd
		}
		cls.Members = append(cls.Members, domain.MemberPhase{
			Member:     nino34.Members[i],
			WindowMean: mean,
			Low:        low,
			High:       high,
			Phase:      phaseOf(mean, low, high),
		})
	}
	return cls, nil
}

func phaseOf(mean, low, high float64) domain.Phase {
	switch {
	case mean > high:
		return domain.ElNino
	case mean < low:
		return domain.LaNina
	default:
		return domain.Neutral
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
