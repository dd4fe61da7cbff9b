package enso

import (
	"fmt"

	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/montanaflynn/stats"
)

// Reducer turns a gridded field into a scalar series, e.g. nino.GlobalMean.
type Reducer func(domain.GriddedField) (domain.IndexSeries, error)

// PostWindow returns the steps [eruptionIndex, eruptionIndex+post) of a series.
// A window that runs past the end of the record is an error, never truncated.
func PostWindow(s domain.IndexSeries, eruptionIndex, post int) (domain.IndexSeries, error) {
	if post < 1 {
		return domain.IndexSeries{}, fmt.Errorf("%w: post window %d", domain.ErrInvalidParameter, post)
	}
	if eruptionIndex < 0 {
		return domain.IndexSeries{}, fmt.Errorf("%w: eruption index %d", domain.ErrInvalidParameter, eruptionIndex)
	}
	end := eruptionIndex + post
	if end > s.Steps() {
		return domain.IndexSeries{}, fmt.Errorf("%w: post window [%d, %d) beyond %d steps",
			domain.ErrInsufficientRecord, eruptionIndex, end, s.Steps())
	}

	out := domain.IndexSeries{
		Region:  s.Region,
		Members: append([]int(nil), s.Members...),
		Values:  make([][]float64, len(s.Values)),
	}
	if len(s.Time) == s.Steps() {
		out.Time = append(out.Time, s.Time[eruptionIndex:end]...)
	}
	for m, row := range s.Values {
		out.Values[m] = append([]float64(nil), row[eruptionIndex:end]...)
	}
	return out, nil
}

// WindowMeans averages each member's series over the post window. The result
// is aligned with s.Members.
func WindowMeans(s domain.IndexSeries, eruptionIndex, post int) ([]float64, error) {
	pw, err := PostWindow(s, eruptionIndex, post)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(pw.Values))
	for m, row := range pw.Values {
		if out[m], err = stats.Mean(row); err != nil {
			return nil, fmt.Errorf("member %d post-window mean: %w", pw.Members[m], err)
		}
		if !finite(out[m]) {
			return nil, fmt.Errorf("%w: member %d post-window mean is %g", domain.ErrInvalidParameter, pw.Members[m], out[m])
		}
	}
	return out, nil
}

// CompositeResponse averages the post-eruption series across the members of
// each phase. Members are matched by ID. Every phase appears in the result;
// a phase nobody fell into has Count 0 and no Mean.
func CompositeResponse(s domain.IndexSeries, cls domain.Classification, eruptionIndex, post int) (domain.CompositeResult, error) {
	pw, err := PostWindow(s, eruptionIndex, post)
	if err != nil {
		return domain.CompositeResult{}, err
	}

	rows := make(map[domain.Phase][][]float64, len(domain.Phases))
	members := make(map[domain.Phase][]int, len(domain.Phases))
	for _, mp := range cls.Members {
		row, ok := pw.Member(mp.Member)
		if !ok {
			return domain.CompositeResult{}, fmt.Errorf("%w: member %d classified but absent from %s series",
				domain.ErrInvalidParameter, mp.Member, s.Region)
		}
		rows[mp.Phase] = append(rows[mp.Phase], row)
		members[mp.Phase] = append(members[mp.Phase], mp.Member)
	}

	result := domain.CompositeResult{
		Metric:        s.Region,
		EruptionIndex: eruptionIndex,
		Offsets:       make([]int, post),
		Groups:        make(map[domain.Phase]domain.Composite, len(domain.Phases)),
	}
	for k := range result.Offsets {
		result.Offsets[k] = k
	}
	for _, p := range domain.Phases {
		c, err := composite(p, members[p], rows[p], post)
		if err != nil {
			return domain.CompositeResult{}, err
		}
		result.Groups[p] = c
	}
	return result, nil
}

func composite(p domain.Phase, ids []int, rows [][]float64, post int) (domain.Composite, error) {
	c := domain.Composite{Phase: p, Count: len(rows), Members: ids}
	if len(rows) == 0 {
		return c, nil
	}
	c.Mean = make([]float64, post)
	if len(rows) > 1 {
		c.Spread = make([]float64, post)
	}
	column := make([]float64, len(rows))
	for k := 0; k < post; k++ {
		for i, row := range rows {
			column[i] = row[k]
		}
		mean, err := stats.Mean(column)
		if err != nil {
			return domain.Composite{}, fmt.Errorf("%s composite at offset %d: %w", p, k, err)
		}
		if !finite(mean) {
			return domain.Composite{}, fmt.Errorf("%w: %s composite at offset %d is %g", domain.ErrInvalidParameter, p, k, mean)
		}
		c.Mean[k] = mean
		if c.Spread != nil {
			sd, err := stats.StandardDeviationSample(column)
			if err != nil {
				return domain.Composite{}, fmt.Errorf("%s spread at offset %d: %w", p, k, err)
			}
			c.Spread[k] = sd
		}
	}
	return c, nil
}

// CompositeField reduces a field with the given reducer, then composites it.
func CompositeField(field domain.GriddedField, reduce Reducer, cls domain.Classification, eruptionIndex, post int) (domain.CompositeResult, error) {
	s, err := reduce(field)
	if err != nil {
		return domain.CompositeResult{}, err
	}
	return CompositeResponse(s, cls, eruptionIndex, post)
}
