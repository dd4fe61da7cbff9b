// Command analyze runs the full seasonality analysis over a directory of
// onset envelopes (<Onset>_1x.json, optional control.json) and prints the
// report as JSON.
//
// Usage:
//
//	go run ./cmd/analyze -dir data/mock/run -post 24 > report.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/enso-eruption-analysis/internal/config"
	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/couchcryptid/enso-eruption-analysis/internal/enso"
	"github.com/couchcryptid/enso-eruption-analysis/internal/nino"
	"github.com/couchcryptid/enso-eruption-analysis/internal/synthetic"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dir := flag.String("dir", "", "directory of onset envelopes")
	controlPath := flag.String("control", "", "control-run envelope (default: <dir>/control.json if present)")
	window := flag.Int("window", 0, "override pre-eruption window")
	post := flag.Int("post", 0, "override post-eruption window")
	eruption := flag.Int("eruption-index", -1, "override eruption index for envelopes that do not carry one")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -dir")
	}

	// Same layering as the service: defaults, ANALYSIS_CONFIG, ENSO_*; flags win.
	acfg, err := config.LoadAnalysis()
	if err != nil {
		return err
	}
	cfg := acfg.EnsoConfig()
	if *window > 0 {
		cfg.Window = *window
	}
	if *post > 0 {
		cfg.PostWindow = *post
	}
	if *eruption >= 0 {
		cfg.EruptionIndex = *eruption
	}

	ensembles, control, err := synthetic.LoadEnsembles(*dir)
	if err != nil {
		return err
	}
	if *controlPath != "" {
		ctl, err := domain.ReadEnsembleFile(*controlPath)
		if err != nil {
			return fmt.Errorf("control: %w", err)
		}
		control = &ctl.Field
	}

	analyzer, err := enso.NewAnalyzer(cfg, nino.NewIndexer(len(ensembles)*2+2))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := analyzer.AnalyzeSeasonality(ctx, ensembles, control)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
