package nino

import (
	"fmt"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// SeasonalMeans averages an index over each complete occurrence of a season.
// DJF takes December from the preceding calendar year; the output timestamp
// is the first month of each season. Incomplete seasons at either end of the
// record are dropped.
func SeasonalMeans(s domain.IndexSeries, season domain.Season) (domain.IndexSeries, error) {
	if len(s.Time) == 0 || len(s.Time) != s.Steps() {
		return domain.IndexSeries{}, fmt.Errorf("%w: seasonal means need one timestamp per step", domain.ErrMissingTimeAxis)
	}

	type group struct {
		year  int
		steps []int
	}
	var groups []*group
	byYear := make(map[int]*group)
	for t, ts := range s.Time {
		sn, year := domain.SeasonOf(ts)
		if sn != season {
			continue
		}
		g, ok := byYear[year]
		if !ok {
			g = &group{year: year}
			byYear[year] = g
			groups = append(groups, g)
		}
		g.steps = append(g.steps, t)
	}

	out := domain.IndexSeries{
		Region:  s.Region + "_" + string(season),
		Members: append([]int(nil), s.Members...),
		Values:  make([][]float64, len(s.Values)),
	}
	buf := make([]float64, 3)
	for _, g := range groups {
		if len(g.steps) != 3 {
			continue
		}
		out.Time = append(out.Time, s.Time[g.steps[0]])
		for m, row := range s.Values {
			for k, t := range g.steps {
				buf[k] = row[t]
			}
			out.Values[m] = append(out.Values[m], floats.Sum(buf)/3)
		}
	}
	return out, nil
}

// SeasonNino34 returns the Niño 3.4 index reduced to DJF and JJA seasonal means.
func SeasonNino34(field domain.GriddedField) (djf, jja domain.IndexSeries, err error) {
	n34, err := Nino34(field)
	if err != nil {
		return domain.IndexSeries{}, domain.IndexSeries{}, err
	}
	if djf, err = SeasonalMeans(n34, domain.DJF); err != nil {
		return domain.IndexSeries{}, domain.IndexSeries{}, err
	}
	if jja, err = SeasonalMeans(n34, domain.JJA); err != nil {
		return domain.IndexSeries{}, domain.IndexSeries{}, err
	}
	return djf, jja, nil
}
