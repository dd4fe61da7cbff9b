package synthetic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
)

// File names inside a fixture directory. Each onset is stored as
// "<Onset>_1x.json", e.g. "January_1x.json".
const (
	ManifestFile = "manifest.json"
	ControlFile  = "control.json"
)

// EnsembleFile returns the envelope file name for an onset.
func EnsembleFile(o domain.Onset) string {
	return o.Label() + ".json"
}

// Save writes the fixture's envelopes, control run and manifest into dir,
// creating it if needed.
func Save(dir string, fx Fixture) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, ens := range fx.Ensembles {
		msg := domain.NewEnsembleMessage(ens.RunID, ens.Onset, ens.Field, ens.EruptionIndex)
		if err := writeJSON(filepath.Join(dir, EnsembleFile(ens.Onset)), msg); err != nil {
			return err
		}
	}
	if fx.Control != nil {
		msg := domain.NewEnsembleMessage(fx.Manifest.RunID, domain.January, *fx.Control, nil)
		if err := writeJSON(filepath.Join(dir, ControlFile), msg); err != nil {
			return err
		}
	}
	return writeJSON(filepath.Join(dir, ManifestFile), fx.Manifest)
}

// LoadEnsembles reads every onset envelope present in dir, in onset order,
// and the control run if control.json exists.
func LoadEnsembles(dir string) ([]domain.Ensemble, *domain.GriddedField, error) {
	var out []domain.Ensemble
	for _, o := range domain.Onsets {
		ens, err := domain.ReadEnsembleFile(filepath.Join(dir, EnsembleFile(o)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		out = append(out, ens)
	}
	if len(out) == 0 {
		return nil, nil, fmt.Errorf("no onset envelopes in %s", dir)
	}

	ctl, err := domain.ReadEnsembleFile(filepath.Join(dir, ControlFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return out, nil, nil
	case err != nil:
		return nil, nil, err
	}
	return out, &ctl.Field, nil
}

// LoadManifest reads manifest.json from dir.
func LoadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", ManifestFile, err)
	}
	return m, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
