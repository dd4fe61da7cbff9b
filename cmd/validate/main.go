// Command validate checks a genmock run end to end: the envelopes decode and
// match the manifest, the analysis recovers every planted ENSO phase, the
// composites group members accordingly, and every onset pair is compared.
//
// Usage:
//
//	go run ./cmd/validate -dir data/mock/run
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/couchcryptid/enso-eruption-analysis/internal/enso"
	"github.com/couchcryptid/enso-eruption-analysis/internal/synthetic"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "directory written by genmock")
	post := flag.Int("post", 0, "post-eruption window (default: every month after the eruption, capped at 24)")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir, *post); code != 0 {
		os.Exit(code)
	}
}

func run(dir string, post int) int {
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== ENSO Eruption Run Validation ===")
	fmt.Println()

	manifest, err := synthetic.LoadManifest(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load manifest: %v\n", err)
		return 1
	}
	ensembles, control, err := synthetic.LoadEnsembles(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load envelopes: %v\n", err)
		return 1
	}

	cfg := enso.DefaultConfig()
	cfg.Window = manifest.Window
	cfg.EruptionIndex = manifest.EruptionIndex
	cfg.PostWindow = post
	if cfg.PostWindow == 0 {
		cfg.PostWindow = min(enso.DefaultPostWindow, manifest.Months-manifest.EruptionIndex)
	}
	analyzer, err := enso.NewAnalyzer(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: analyzer: %v\n", err)
		return 1
	}

	report, err := analyzer.AnalyzeSeasonality(context.Background(), ensembles, control)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: analyze: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateEnvelopes(manifest, ensembles, control),
		validatePhases(manifest, report),
		validateComposites(manifest, report),
		validateComparisons(report),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Run %s: %d onsets, %d members, %d months, post window %d\n",
		manifest.RunID, len(ensembles), manifest.Members, manifest.Months, cfg.PostWindow)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Envelopes ──

func validateEnvelopes(m synthetic.Manifest, ensembles []domain.Ensemble, control *domain.GriddedField) *phase {
	p := &phase{name: "Phase 1: Envelopes (decode vs manifest)"}

	if len(ensembles) != len(m.Expected) {
		p.errorf("manifest lists %d onsets, found %d envelopes", len(m.Expected), len(ensembles))
	}
	for _, ens := range ensembles {
		if ens.RunID != m.RunID {
			p.errorf("%s: run ID %q, manifest %q", ens.Onset, ens.RunID, m.RunID)
		}
		d := ens.Field.Dims
		if d.Members != m.Members || d.Time != m.Months {
			p.errorf("%s: %d members x %d months, manifest %d x %d", ens.Onset, d.Members, d.Time, m.Members, m.Months)
		}
		if ens.EruptionIndex == nil {
			p.errorf("%s: envelope has no eruption index", ens.Onset)
		} else if *ens.EruptionIndex != m.EruptionIndex {
			p.errorf("%s: eruption index %d, manifest %d", ens.Onset, *ens.EruptionIndex, m.EruptionIndex)
		}
		if !ens.Field.HasTime() {
			p.errorf("%s: no time axis", ens.Onset)
		}
		for i, v := range ens.Field.Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				p.errorf("%s: non-finite value at flat index %d", ens.Onset, i)
				break
			}
		}
	}
	switch {
	case m.Control && control == nil:
		p.errorf("manifest records a control run but control.json is missing")
	case !m.Control && control != nil:
		p.errorf("control.json present but manifest records none")
	}
	return p
}

// ── Phase 2: Phase recovery ──

func validatePhases(m synthetic.Manifest, r domain.SeasonalityReport) *phase {
	p := &phase{name: "Phase 2: ENSO Phases (classified vs planted)"}

	for onset, expected := range m.Expected {
		exp, ok := r.Experiments[onset]
		if !ok {
			p.errorf("%s: no experiment report", onset)
			continue
		}
		got := exp.Classification.Labels()
		for id, want := range expected {
			if got[id] != want {
				p.errorf("%s member %d: classified %q, planted %q", onset, id, got[id], want)
			}
		}
		if len(got) != len(expected) {
			p.errorf("%s: %d members classified, %d planted", onset, len(got), len(expected))
		}
	}
	return p
}

// ── Phase 3: Composites ──

func validateComposites(m synthetic.Manifest, r domain.SeasonalityReport) *phase {
	p := &phase{name: "Phase 3: Composites (group sizes)"}

	for onset, expected := range m.Expected {
		exp, ok := r.Experiments[onset]
		if !ok {
			continue
		}
		want := map[domain.Phase]int{}
		for _, ph := range expected {
			want[ph]++
		}
		for _, metric := range []string{domain.MetricGlobalMeanTS, domain.MetricNino34} {
			res, ok := exp.Composites[metric]
			if !ok {
				p.errorf("%s: no %s composite", onset, metric)
				continue
			}
			for _, ph := range domain.Phases {
				g := res.Groups[ph]
				if g.Count != want[ph] {
					p.errorf("%s %s %s: %d members, expected %d", onset, metric, ph, g.Count, want[ph])
				}
				if g.Count > 0 && len(g.Mean) != exp.PostWindow {
					p.errorf("%s %s %s: mean has %d offsets, expected %d", onset, metric, ph, len(g.Mean), exp.PostWindow)
				}
			}
		}
	}
	return p
}

// ── Phase 4: Comparisons ──

func validateComparisons(r domain.SeasonalityReport) *phase {
	p := &phase{name: "Phase 4: Onset Comparisons (Welch t-test)"}

	n := len(r.Experiments)
	pairs := n * (n - 1) / 2
	if want := 2 * pairs; len(r.Comparisons) != want {
		p.errorf("%d post-window comparisons, expected %d", len(r.Comparisons), want)
	}
	if want := 2 * pairs; len(r.OffsetComparisons) != want {
		p.errorf("%d offset comparisons, expected %d", len(r.OffsetComparisons), want)
	}
	for _, f := range r.Failures {
		p.errorf("%s vs %s (%s, %s): %s", f.A, f.B, f.Metric, f.Kind, f.Error)
	}
	for _, c := range r.Comparisons {
		if math.IsNaN(c.P) || c.P < 0 || c.P > 1 {
			p.errorf("%s vs %s (%s): p=%g outside [0, 1]", c.A, c.B, c.Metric, c.P)
		}
		if c.DF <= 0 {
			p.errorf("%s vs %s (%s): df=%g", c.A, c.B, c.Metric, c.DF)
		}
	}
	for _, c := range r.OffsetComparisons {
		for k, pv := range c.P {
			if math.IsNaN(pv) || pv < 0 || pv > 1 {
				p.errorf("%s vs %s (%s) offset %d: p=%g outside [0, 1]", c.A, c.B, c.Metric, k, pv)
			}
		}
	}
	return p
}
