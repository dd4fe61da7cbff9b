// Package enso classifies ensemble members by their pre-eruption ENSO phase,
// composites post-eruption responses by phase and compares eruption-onset
// experiments with Welch's t-test.
//
// Every function is a pure computation over its inputs; fields and series
// are never modified in place.
package enso

import (
	"fmt"
	"time"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
)

// ClimatologyAnomaly subtracts the control run's calendar-month climatology
// from an experiment, cell by cell. The climatology of a month is the mean
// over every control member and every step in that month.
func ClimatologyAnomaly(exp, control domain.GriddedField) (domain.GriddedField, error) {
	if err := exp.Validate(); err != nil {
		return domain.GriddedField{}, err
	}
	if err := control.Validate(); err != nil {
		return domain.GriddedField{}, fmt.Errorf("control: %w", err)
	}
	if !exp.HasTime() || !control.HasTime() {
		return domain.GriddedField{}, fmt.Errorf("%w: climatology anomaly needs timestamps on both runs", domain.ErrMissingTimeAxis)
	}
	if !exp.SameGrid(control) {
		return domain.GriddedField{}, fmt.Errorf("%w: experiment grid %dx%d, control grid %dx%d",
			domain.ErrGridMismatch, exp.Dims.Lat, exp.Dims.Lon, control.Dims.Lat, control.Dims.Lon)
	}

	cells := control.Dims.Lat * control.Dims.Lon
	var sums [12][]float64
	var counts [12]int
	for m := 0; m < control.Dims.Members; m++ {
		for t, ts := range control.Time {
			k := ts.Month() - time.January
			if sums[k] == nil {
				sums[k] = make([]float64, cells)
			}
			for c, v := range control.Plane(m, t) {
				sums[k][c] += v
			}
			counts[k]++
		}
	}
	for k := range sums {
		for c := range sums[k] {
			sums[k][c] /= float64(counts[k])
		}
	}

	out := exp.Clone()
	for m := 0; m < out.Dims.Members; m++ {
		for t, ts := range out.Time {
			clim := sums[ts.Month()-time.January]
			if clim == nil {
				return domain.GriddedField{}, fmt.Errorf("%w: control has no %s steps", domain.ErrGridMismatch, ts.Month())
			}
			plane := out.Plane(m, t)
			for c := range plane {
				plane[c] -= clim[c]
			}
		}
	}
	return out, nil
}

// BaselineAnomaly subtracts each member's per-cell mean over the pre months
// immediately before the eruption: [eruptionIndex-pre, eruptionIndex).
func BaselineAnomaly(field domain.GriddedField, eruptionIndex, pre int) (domain.GriddedField, error) {
	if err := field.Validate(); err != nil {
		return domain.GriddedField{}, err
	}
	if pre < 1 {
		return domain.GriddedField{}, fmt.Errorf("%w: baseline months %d", domain.ErrInvalidParameter, pre)
	}
	if eruptionIndex-pre < 0 {
		return domain.GriddedField{}, fmt.Errorf("%w: baseline needs %d months before index %d",
			domain.ErrInsufficientHistory, pre, eruptionIndex)
	}
	if eruptionIndex > field.Dims.Time {
		return domain.GriddedField{}, fmt.Errorf("%w: eruption index %d beyond %d steps",
			domain.ErrInsufficientRecord, eruptionIndex, field.Dims.Time)
	}

	out := field.Clone()
	base := make([]float64, field.Dims.Lat*field.Dims.Lon)
	for m := 0; m < out.Dims.Members; m++ {
		clear(base)
		for t := eruptionIndex - pre; t < eruptionIndex; t++ {
			for c, v := range field.Plane(m, t) {
				base[c] += v
			}
		}
		for c := range base {
			base[c] /= float64(pre)
		}
		for t := 0; t < out.Dims.Time; t++ {
			plane := out.Plane(m, t)
			for c := range plane {
				plane[c] -= base[c]
			}
		}
	}
	return out, nil
}
