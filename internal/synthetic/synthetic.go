// Package synthetic builds eruption-onset ensembles with planted ENSO phases.
// The fixtures drive the genmock and validate commands and the pipeline tests:
// an analysis that classifies them correctly reproduces the manifest.
package synthetic

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/google/uuid"
)

// Planted window-mean amplitudes. Noise never pushes a member across ±0.5.
const (
	phaseAmplitude = 1.5
	dailyNoise     = 0.2
	cellNoise      = 0.1
	climatologyTS  = 27.0
	seasonalCycle  = 1.5
	controlMembers = 2
	controlYears   = 3
	eruptionYear   = 1258
)

// Options controls fixture generation. Zero values take the defaults.
type Options struct {
	RunID         string
	Members       int
	Months        int
	Window        int
	EruptionIndex int // defaults to Window
	Seed          uint64
	Lat           []float64
	Lon           []float64

	// WithControl adds a seasonal cycle to every experiment and produces a
	// control run carrying only that cycle.
	WithControl bool
}

func (o Options) withDefaults() Options {
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	if o.Members == 0 {
		o.Members = 9
	}
	if o.Months == 0 {
		o.Months = 36
	}
	if o.Window == 0 {
		o.Window = 12
	}
	if o.EruptionIndex == 0 {
		o.EruptionIndex = o.Window
	}
	if o.Lat == nil {
		o.Lat = axis(-10, 10, 2.5)
	}
	if o.Lon == nil {
		o.Lon = axis(150, 280, 5)
	}
	return o
}

// Manifest records the planted phase of every member of every experiment.
type Manifest struct {
	RunID         string                                `json:"run_id"`
	EruptionIndex int                                   `json:"eruption_index"`
	Window        int                                   `json:"window"`
	Members       int                                   `json:"members"`
	Months        int                                   `json:"months"`
	Seed          uint64                                `json:"seed"`
	Control       bool                                  `json:"control"`
	Expected      map[domain.Onset]map[int]domain.Phase `json:"expected"`
	GeneratedAt   time.Time                             `json:"generated_at"`
}

// Fixture is a generated run: one ensemble per onset, plus the control run
// when requested.
type Fixture struct {
	Manifest  Manifest
	Ensembles []domain.Ensemble
	Control   *domain.GriddedField
}

// Generate builds a deterministic fixture for the given seed.
func Generate(opts Options) (Fixture, error) {
	o := opts.withDefaults()
	switch {
	case o.Members < 1:
		return Fixture{}, errors.New("members must be positive")
	case o.Window < 1:
		return Fixture{}, errors.New("window must be positive")
	case o.EruptionIndex < o.Window:
		return Fixture{}, fmt.Errorf("eruption index %d leaves less than a %d-month window", o.EruptionIndex, o.Window)
	case o.EruptionIndex >= o.Months:
		return Fixture{}, fmt.Errorf("eruption index %d leaves no post-eruption months in %d", o.EruptionIndex, o.Months)
	}

	rng := rand.New(rand.NewPCG(o.Seed, 0x5a4a1a5))
	fx := Fixture{Manifest: Manifest{
		RunID:         o.RunID,
		EruptionIndex: o.EruptionIndex,
		Window:        o.Window,
		Members:       o.Members,
		Months:        o.Months,
		Seed:          o.Seed,
		Control:       o.WithControl,
		Expected:      make(map[domain.Onset]map[int]domain.Phase, len(domain.Onsets)),
		GeneratedAt:   domain.Now(),
	}}

	for k, onset := range domain.Onsets {
		expected := make(map[int]domain.Phase, o.Members)
		ids := make([]int, o.Members)
		for m := range ids {
			ids[m] = m + 1
			expected[ids[m]] = domain.Phases[(m+k)%len(domain.Phases)]
		}

		field := domain.NewGriddedField(ids, o.Months, o.Lat, o.Lon)
		field.Time = timeAxis(onset, o.EruptionIndex, o.Months)
		for m, id := range ids {
			for t := 0; t < o.Months; t++ {
				v := signal(expected[id], t, o.EruptionIndex, o.Window, k) + (rng.Float64()*2-1)*dailyNoise
				if o.WithControl {
					v += seasonal(field.Time[t])
				}
				plane := field.Plane(m, t)
				for c := range plane {
					plane[c] = v + (rng.Float64()*2-1)*cellNoise
				}
			}
		}

		eruption := o.EruptionIndex
		fx.Ensembles = append(fx.Ensembles, domain.Ensemble{
			RunID:         o.RunID,
			Onset:         onset,
			Field:         field,
			EruptionIndex: &eruption,
		})
		fx.Manifest.Expected[onset] = expected
	}

	if o.WithControl {
		control := controlRun(o.Lat, o.Lon)
		fx.Control = &control
	}
	return fx, nil
}

// signal is the noise-free anomaly of a member at step t. Before the window
// it is zero; in the window it carries the planted phase; after the eruption
// it decays from the phase toward a cooling that depends on the onset.
func signal(p domain.Phase, t, eruption, window, onsetIdx int) float64 {
	amp := 0.0
	switch p {
	case domain.ElNino:
		amp = phaseAmplitude
	case domain.LaNina:
		amp = -phaseAmplitude
	}
	switch {
	case t < eruption-window:
		return 0
	case t < eruption:
		return amp
	default:
		k := float64(t - eruption)
		cooling := -(0.6 + 0.1*float64(onsetIdx)) * (1 - math.Exp(-k/4))
		return amp*math.Exp(-k/6) + cooling
	}
}

func seasonal(t time.Time) float64 {
	return climatologyTS + seasonalCycle*math.Cos(2*math.Pi*float64(t.Month()-time.March)/12)
}

// controlRun is a few years of pure seasonal cycle on the same grid.
func controlRun(lat, lon []float64) domain.GriddedField {
	months := controlYears * 12
	ids := make([]int, controlMembers)
	for m := range ids {
		ids[m] = m
	}
	f := domain.NewGriddedField(ids, months, lat, lon)
	f.Time = make([]time.Time, months)
	for t := range f.Time {
		f.Time[t] = time.Date(eruptionYear-controlYears, time.January+time.Month(t), 1, 0, 0, 0, 0, time.UTC)
	}
	for m := 0; m < controlMembers; m++ {
		for t, ts := range f.Time {
			plane := f.Plane(m, t)
			for c := range plane {
				plane[c] = seasonal(ts)
			}
		}
	}
	return f
}

// timeAxis starts eruption months before the onset month of the eruption year.
func timeAxis(onset domain.Onset, eruption, months int) []time.Time {
	start := onsetMonth(onset) - time.Month(eruption)
	out := make([]time.Time, months)
	for t := range out {
		out[t] = time.Date(eruptionYear, start+time.Month(t), 1, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func onsetMonth(o domain.Onset) time.Month {
	switch o {
	case domain.April:
		return time.April
	case domain.July:
		return time.July
	case domain.October:
		return time.October
	default:
		return time.January
	}
}

func axis(lo, hi, step float64) []float64 {
	n := int(math.Round((hi-lo)/step)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
