package enso

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/couchcryptid/enso-eruption-analysis/internal/nino"
	"golang.org/x/sync/errgroup"
)

// Baseline selects how response series are referenced before compositing.
type Baseline string

const (
	// BaselineNone composites the anomaly as supplied (or relative to the
	// control climatology when a control run is given).
	BaselineNone Baseline = "none"
	// BaselinePreEruption additionally removes each member's mean over the
	// months just before the eruption.
	BaselinePreEruption Baseline = "pre-eruption"
)

// Config holds the analysis parameters.
type Config struct {
	// EruptionIndex is the step of the eruption. Negative means one window
	// into the record.
	EruptionIndex int
	Window        int
	PostWindow    int
	Low           float64
	High          float64
	// StdScale, when positive, replaces Low/High with ±StdScale·σ.
	StdScale       float64
	Baseline       Baseline
	BaselineMonths int // defaults to Window
}

// DefaultConfig returns the standard 12-month window, ±0.5 thresholds and a
// 24-month response window.
func DefaultConfig() Config {
	return Config{
		EruptionIndex: -1,
		Window:        DefaultWindow,
		PostWindow:    DefaultPostWindow,
		Low:           DefaultLow,
		High:          DefaultHigh,
		Baseline:      BaselineNone,
	}
}

// Validate checks parameters that do not depend on the data.
func (c Config) Validate() error {
	switch {
	case c.Window < 1:
		return fmt.Errorf("%w: window %d", domain.ErrInvalidParameter, c.Window)
	case c.PostWindow < 1:
		return fmt.Errorf("%w: post window %d", domain.ErrInvalidParameter, c.PostWindow)
	case c.StdScale < 0:
		return fmt.Errorf("%w: std scale %g", domain.ErrInvalidParameter, c.StdScale)
	case c.StdScale == 0 && c.Low > c.High:
		return fmt.Errorf("%w: low threshold %g above high %g", domain.ErrInvalidParameter, c.Low, c.High)
	case c.BaselineMonths < 0:
		return fmt.Errorf("%w: baseline months %d", domain.ErrInvalidParameter, c.BaselineMonths)
	}
	switch c.Baseline {
	case "", BaselineNone, BaselinePreEruption:
	default:
		return fmt.Errorf("%w: baseline mode %q", domain.ErrInvalidParameter, c.Baseline)
	}
	return nil
}

func (c Config) eruptionIndex(override *int) int {
	if override != nil {
		return *override
	}
	if c.EruptionIndex < 0 {
		return c.Window
	}
	return c.EruptionIndex
}

func (c Config) classifyOptions(e int) []ClassifyOption {
	opts := []ClassifyOption{WithEruptionIndex(e), WithWindow(c.Window), WithThresholds(c.Low, c.High)}
	if c.StdScale > 0 {
		opts = append(opts, WithStdScaledThresholds(c.StdScale))
	}
	return opts
}

// Analyzer runs the per-experiment and multi-experiment analyses. The
// Indexer is shared so experiments on one grid select regions once.
type Analyzer struct {
	cfg     Config
	indexer *nino.Indexer
}

// NewAnalyzer creates an Analyzer. A nil indexer gets a private one.
func NewAnalyzer(cfg Config, indexer *nino.Indexer) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if indexer == nil {
		indexer = nino.NewIndexer(16)
	}
	return &Analyzer{cfg: cfg, indexer: indexer}, nil
}

// Config returns the parameters the analyzer was built with.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// AnalyzeExperiment classifies the members of one onset experiment and
// composites their global-mean and Niño 3.4 responses by phase.
func (a *Analyzer) AnalyzeExperiment(ens domain.Ensemble, control *domain.GriddedField) (domain.ExperimentReport, error) {
	anomaly := ens.Field
	if control != nil {
		var err error
		if anomaly, err = ClimatologyAnomaly(ens.Field, *control); err != nil {
			return domain.ExperimentReport{}, fmt.Errorf("%s anomaly: %w", ens.Onset, err)
		}
	}
	e := a.cfg.eruptionIndex(ens.EruptionIndex)

	n34, err := a.indexer.Nino34(anomaly)
	if err != nil {
		return domain.ExperimentReport{}, fmt.Errorf("%s nino34: %w", ens.Onset, err)
	}
	cls, err := ClassifyPhase(n34, a.cfg.classifyOptions(e)...)
	if err != nil {
		return domain.ExperimentReport{}, fmt.Errorf("%s classify: %w", ens.Onset, err)
	}

	responses := map[string]domain.IndexSeries{domain.MetricNino34: n34}
	response := anomaly
	if a.cfg.Baseline == BaselinePreEruption {
		months := a.cfg.BaselineMonths
		if months == 0 {
			months = a.cfg.Window
		}
		if response, err = BaselineAnomaly(anomaly, e, months); err != nil {
			return domain.ExperimentReport{}, fmt.Errorf("%s baseline: %w", ens.Onset, err)
		}
		if responses[domain.MetricNino34], err = a.indexer.Nino34(response); err != nil {
			return domain.ExperimentReport{}, fmt.Errorf("%s nino34: %w", ens.Onset, err)
		}
	}
	if responses[domain.MetricGlobalMeanTS], err = a.indexer.GlobalMean(response); err != nil {
		return domain.ExperimentReport{}, fmt.Errorf("%s global mean: %w", ens.Onset, err)
	}

	report := domain.ExperimentReport{
		RunID:           ens.RunID,
		Onset:           ens.Onset,
		Variable:        ens.Field.Variable,
		EruptionIndex:   e,
		PostWindow:      a.cfg.PostWindow,
		Classification:  cls,
		Composites:      make(map[string]domain.CompositeResult, len(responses)),
		PostWindowMeans: make(map[string][]float64, len(responses)),
		Responses:       make(map[string]domain.IndexSeries, len(responses)),
	}
	for metric, s := range responses {
		s.Region = metric
		comp, err := CompositeResponse(s, cls, e, a.cfg.PostWindow)
		if err != nil {
			return domain.ExperimentReport{}, fmt.Errorf("%s %s composite: %w", ens.Onset, metric, err)
		}
		pw, err := PostWindow(s, e, a.cfg.PostWindow)
		if err != nil {
			return domain.ExperimentReport{}, err
		}
		means, err := WindowMeans(s, e, a.cfg.PostWindow)
		if err != nil {
			return domain.ExperimentReport{}, err
		}
		report.Composites[metric] = comp
		report.PostWindowMeans[metric] = means
		report.Responses[metric] = pw
	}
	report.GeneratedAt = domain.Now()
	return report, nil
}

// AnalyzeSeasonality analyzes every onset experiment concurrently and then
// compares the onsets pairwise, both on post-window means and offset by
// offset. Each onset may appear only once. A pair whose samples are too
// small or constant is listed in Failures; the other pairs are still reported.
func (a *Analyzer) AnalyzeSeasonality(ctx context.Context, experiments []domain.Ensemble, control *domain.GriddedField) (domain.SeasonalityReport, error) {
	seen := make(map[domain.Onset]bool, len(experiments))
	for _, ens := range experiments {
		if seen[ens.Onset] {
			return domain.SeasonalityReport{}, fmt.Errorf("%w: onset %s given twice", domain.ErrInvalidParameter, ens.Onset)
		}
		seen[ens.Onset] = true
	}

	reports := make([]domain.ExperimentReport, len(experiments))
	g, gctx := errgroup.WithContext(ctx)
	for i, ens := range experiments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := a.AnalyzeExperiment(ens, control)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.SeasonalityReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.SeasonalityReport{}, err
	}

	out := domain.SeasonalityReport{Experiments: make(map[domain.Onset]domain.ExperimentReport, len(reports))}
	for _, r := range reports {
		if out.RunID == "" {
			out.RunID = r.RunID
		}
		out.Experiments[r.Onset] = r
	}

	for _, metric := range []string{domain.MetricGlobalMeanTS, domain.MetricNino34} {
		for _, pr := range canonicalPairs() {
			ra, okA := out.Experiments[pr.a]
			rb, okB := out.Experiments[pr.b]
			if !okA || !okB {
				continue
			}
			if err := comparePair(&out, ra, rb, metric); err != nil {
				return domain.SeasonalityReport{}, err
			}
		}
	}
	out.GeneratedAt = domain.Now()
	return out, nil
}

// comparePair appends one onset pair's comparisons to out. ErrInsufficientSample
// is recorded as a failure of that pair; any other error is returned.
func comparePair(out *domain.SeasonalityReport, a, b domain.ExperimentReport, metric string) error {
	means := map[string][]float64{
		string(a.Onset): a.PostWindowMeans[metric],
		string(b.Onset): b.PostWindowMeans[metric],
	}
	cmps, err := CompareExperiments(means, metric)
	switch {
	case errors.Is(err, domain.ErrInsufficientSample):
		out.Failures = append(out.Failures, domain.ComparisonFailure{
			A: a.Onset, B: b.Onset, Metric: metric, Kind: domain.ComparisonPostWindow, Error: err.Error(),
		})
	case err != nil:
		return err
	default:
		out.Comparisons = append(out.Comparisons, cmps...)
	}

	series := map[string]domain.IndexSeries{
		string(a.Onset): a.Responses[metric],
		string(b.Onset): b.Responses[metric],
	}
	offsets, err := CompareByOffset(series, metric)
	switch {
	case errors.Is(err, domain.ErrInsufficientSample):
		out.Failures = append(out.Failures, domain.ComparisonFailure{
			A: a.Onset, B: b.Onset, Metric: metric, Kind: domain.ComparisonByOffset, Error: err.Error(),
		})
	case err != nil:
		return err
	default:
		out.OffsetComparisons = append(out.OffsetComparisons, offsets...)
	}
	return nil
}
