// Package nino computes cosine-latitude weighted regional indices (Niño 3,
// Niño 3.4, Niño 4, global mean) from gridded ensemble fields.
package nino

import (
	"fmt"
	"math"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// selection is the set of grid cells inside a region, with one weight per
// selected latitude row.
type selection struct {
	latIdx  []int
	weights []float64
	lonIdx  []int
}

// ComputeRegionIndex reduces a field to the cos(lat)-weighted mean over a
// region for every (member, time). NaN cells are skipped along with their
// weight.
func ComputeRegionIndex(field domain.GriddedField, region domain.Region) (domain.IndexSeries, error) {
	if err := field.Validate(); err != nil {
		return domain.IndexSeries{}, err
	}
	sel, err := selectRegion(field, region)
	if err != nil {
		return domain.IndexSeries{}, err
	}
	return reduce(field, sel, region.Name)
}

// selectRegion finds the latitude rows and longitude columns of the field
// that lie inside the region.
func selectRegion(field domain.GriddedField, region domain.Region) (selection, error) {
	if len(field.Lat) != field.Dims.Lat || len(field.Lon) != field.Dims.Lon {
		return selection{}, fmt.Errorf("%w: coordinates %dx%d do not match field axes %dx%d",
			domain.ErrRegionOutOfBounds, len(field.Lat), len(field.Lon), field.Dims.Lat, field.Dims.Lon)
	}
	if err := region.Validate(); err != nil {
		return selection{}, err
	}

	var sel selection
	for i, lat := range field.Lat {
		if !region.ContainsLat(lat) {
			continue
		}
		sel.latIdx = append(sel.latIdx, i)
		sel.weights = append(sel.weights, latWeight(lat))
	}
	intervals := region.LonIntervals()
	for j, lon := range field.Lon {
		for _, iv := range intervals {
			if iv.Contains(lon) {
				sel.lonIdx = append(sel.lonIdx, j)
				break
			}
		}
	}

	if len(sel.latIdx) == 0 || len(sel.lonIdx) == 0 {
		return selection{}, fmt.Errorf("%w: region %q selects no grid cells (%d lat, %d lon)",
			domain.ErrRegionOutOfBounds, region.Name, len(sel.latIdx), len(sel.lonIdx))
	}
	if floats.Sum(sel.weights) == 0 {
		return selection{}, fmt.Errorf("%w: region %q has zero total weight", domain.ErrRegionOutOfBounds, region.Name)
	}
	return sel, nil
}

// latWeight is cos(lat), forced to exactly zero at the poles.
func latWeight(lat float64) float64 {
	if math.Abs(lat) >= 90 {
		return 0
	}
	return math.Cos(lat * math.Pi / 180)
}

func reduce(field domain.GriddedField, sel selection, name string) (domain.IndexSeries, error) {
	d := field.Dims
	out := domain.IndexSeries{
		Region:  name,
		Members: field.Members(),
		Values:  make([][]float64, d.Members),
	}
	if field.HasTime() {
		out.Time = append(out.Time, field.Time...)
	}

	rowSums := make([]float64, len(sel.latIdx))
	rowCounts := make([]float64, len(sel.latIdx))
	for m := 0; m < d.Members; m++ {
		out.Values[m] = make([]float64, d.Time)
		for t := 0; t < d.Time; t++ {
			plane := field.Plane(m, t)
			for r, i := range sel.latIdx {
				row := plane[i*d.Lon : (i+1)*d.Lon]
				rowSums[r], rowCounts[r] = 0, 0
				for _, j := range sel.lonIdx {
					v := row[j]
					if math.IsNaN(v) {
						continue
					}
					rowSums[r] += v
					rowCounts[r]++
				}
			}
			den := floats.Dot(sel.weights, rowCounts)
			if den == 0 {
				return domain.IndexSeries{}, fmt.Errorf("%w: region %q has no weighted data for member %d step %d",
					domain.ErrRegionOutOfBounds, name, out.Members[m], t)
			}
			out.Values[m][t] = floats.Dot(sel.weights, rowSums) / den
		}
	}
	return out, nil
}
