package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/couchcryptid/enso-eruption-analysis/internal/enso"
	"github.com/couchcryptid/enso-eruption-analysis/internal/observability"
)

// ExperimentAnalyzer is the part of enso.Analyzer the pipeline uses.
type ExperimentAnalyzer interface {
	AnalyzeExperiment(ens domain.Ensemble, control *domain.GriddedField) (domain.ExperimentReport, error)
}

// CacheSizer reports how many region selections are cached.
type CacheSizer interface {
	Len() int
}

// AnalysisTransformer implements Transformer by decoding an ensemble
// envelope, analyzing it, and serializing the report.
type AnalysisTransformer struct {
	analyzer ExperimentAnalyzer
	control  *domain.GriddedField
	cache    CacheSizer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

var _ ExperimentAnalyzer = (*enso.Analyzer)(nil)

// NewTransformer creates an AnalysisTransformer. Pass a nil control to
// analyze fields as supplied; cache may be nil.
func NewTransformer(analyzer ExperimentAnalyzer, control *domain.GriddedField, cache CacheSizer, logger *slog.Logger, metrics *observability.Metrics) *AnalysisTransformer {
	return &AnalysisTransformer{
		analyzer: analyzer,
		control:  control,
		cache:    cache,
		logger:   logger,
		metrics:  metrics,
	}
}

func (t *AnalysisTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	ens, err := domain.ParseEnsemble(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	start := time.Now()
	report, err := t.analyzer.AnalyzeExperiment(ens, t.control)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	t.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	t.metrics.ExperimentsAnalyzed.WithLabelValues(string(report.Onset)).Inc()
	for _, p := range domain.Phases {
		t.metrics.PhaseClassifications.WithLabelValues(string(p)).Add(float64(report.Classification.Count(p)))
	}
	if t.cache != nil {
		t.metrics.SelectionCacheSize.Set(float64(t.cache.Len()))
	}

	t.logger.Debug("experiment analyzed",
		"run_id", report.RunID,
		"onset", report.Onset,
		"members", len(report.Classification.Members),
		"el_nino", report.Classification.Count(domain.ElNino),
		"la_nina", report.Classification.Count(domain.LaNina),
		"neutral", report.Classification.Count(domain.Neutral),
	)

	return domain.SerializeReport(report)
}
