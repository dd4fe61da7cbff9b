package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/enso-eruption-analysis/internal/enso"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Analysis holds the classification and compositing parameters.
type Analysis struct {
	// EruptionIndex < 0 places the eruption one window into the record.
	EruptionIndex  int     `koanf:"eruption_index"`
	Window         int     `koanf:"window"`
	PostWindow     int     `koanf:"post_window"`
	Low            float64 `koanf:"low"`
	High           float64 `koanf:"high"`
	StdScale       float64 `koanf:"std_scale"`
	Baseline       string  `koanf:"baseline"`
	BaselineMonths int     `koanf:"baseline_months"`
}

// DefaultAnalysis mirrors enso.DefaultConfig.
func DefaultAnalysis() Analysis {
	d := enso.DefaultConfig()
	return Analysis{
		EruptionIndex: d.EruptionIndex,
		Window:        d.Window,
		PostWindow:    d.PostWindow,
		Low:           d.Low,
		High:          d.High,
		Baseline:      string(d.Baseline),
	}
}

// LoadAnalysis layers analysis parameters, low to high precedence:
//  1. DefaultAnalysis
//  2. the YAML file named by ANALYSIS_CONFIG, if set
//  3. ENSO_* environment variables (ENSO_POST_WINDOW -> post_window)
func LoadAnalysis() (*Analysis, error) {
	k := koanf.New(".")

	if path := os.Getenv("ANALYSIS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("ANALYSIS_CONFIG %s: %w", path, err)
		}
	}

	envProvider := env.Provider("ENSO_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "enso_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := DefaultAnalysis()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("analysis config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (a Analysis) validate() error {
	switch {
	case a.Window < 1:
		return fmt.Errorf("window must be positive, got %d", a.Window)
	case a.PostWindow < 1:
		return fmt.Errorf("post_window must be positive, got %d", a.PostWindow)
	case a.StdScale < 0:
		return fmt.Errorf("std_scale must not be negative, got %g", a.StdScale)
	case a.StdScale == 0 && a.Low > a.High:
		return fmt.Errorf("low (%g) must not exceed high (%g)", a.Low, a.High)
	case a.BaselineMonths < 0:
		return fmt.Errorf("baseline_months must not be negative, got %d", a.BaselineMonths)
	}
	switch enso.Baseline(a.Baseline) {
	case enso.BaselineNone, enso.BaselinePreEruption:
	default:
		return fmt.Errorf("baseline must be %q or %q, got %q", enso.BaselineNone, enso.BaselinePreEruption, a.Baseline)
	}
	return nil
}

// EnsoConfig converts to the analyzer's parameter set.
func (a Analysis) EnsoConfig() enso.Config {
	return enso.Config{
		EruptionIndex:  a.EruptionIndex,
		Window:         a.Window,
		PostWindow:     a.PostWindow,
		Low:            a.Low,
		High:           a.High,
		StdScale:       a.StdScale,
		Baseline:       enso.Baseline(a.Baseline),
		BaselineMonths: a.BaselineMonths,
	}
}
