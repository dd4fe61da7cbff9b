// Command genmock writes a synthetic eruption-onset run: one ensemble
// envelope per onset, an optional control run, and a manifest of the ENSO
// phase planted in every member. The same seed always produces the same
// files.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/run -members 9 -months 36 -seed 1 -control
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/couchcryptid/enso-eruption-analysis/internal/synthetic"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for envelopes and manifest")
	runID := flag.String("run-id", "mock-run", "run ID stamped on every envelope")
	members := flag.Int("members", 9, "ensemble members per onset")
	months := flag.Int("months", 36, "monthly steps per member")
	window := flag.Int("window", 12, "pre-eruption classification window in months")
	seed := flag.Uint64("seed", 1, "random seed")
	control := flag.Bool("control", false, "add a seasonal cycle and write control.json")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// Fixed clock for a reproducible manifest timestamp.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fx, err := synthetic.Generate(synthetic.Options{
		RunID:       *runID,
		Members:     *members,
		Months:      *months,
		Window:      *window,
		Seed:        *seed,
		WithControl: *control,
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if err := synthetic.Save(*out, fx); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}

	fmt.Printf("Wrote %d onset envelopes (%d members x %d months) to %s\n",
		len(fx.Ensembles), *members, *months, *out)
	if fx.Control != nil {
		fmt.Printf("Wrote control run (%d members x %d months)\n", fx.Control.Dims.Members, fx.Control.Dims.Time)
	}
	for _, o := range domain.Onsets {
		counts := map[domain.Phase]int{}
		for _, p := range fx.Manifest.Expected[o] {
			counts[p]++
		}
		fmt.Printf("  %-12s El Nino=%d Neutral=%d La Nina=%d\n",
			o.Label(), counts[domain.ElNino], counts[domain.Neutral], counts[domain.LaNina])
	}
	return nil
}
