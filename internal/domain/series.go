package domain

import (
	"slices"
	"time"
)

// IndexSeries is a regional index per member over time.
type IndexSeries struct {
	Region  string      `json:"region"`
	Members []int       `json:"members"`
	Time    []time.Time `json:"time,omitempty"`
	// Values is member × time.
	Values [][]float64 `json:"values"`
}

// Steps returns the length of the time axis.
func (s IndexSeries) Steps() int {
	if len(s.Values) == 0 {
		return 0
	}
	return len(s.Values[0])
}

// Member returns the values for one member ID.
func (s IndexSeries) Member(id int) ([]float64, bool) {
	i := slices.Index(s.Members, id)
	if i < 0 {
		return nil, false
	}
	return s.Values[i], true
}

// Season is a three-month meteorological season.
type Season string

const (
	DJF Season = "DJF"
	MAM Season = "MAM"
	JJA Season = "JJA"
	SON Season = "SON"
)

// SeasonOf returns the season of a calendar month and the year the season
// is labelled with. December belongs to the following year's DJF.
func SeasonOf(t time.Time) (Season, int) {
	switch t.Month() {
	case time.December:
		return DJF, t.Year() + 1
	case time.January, time.February:
		return DJF, t.Year()
	case time.March, time.April, time.May:
		return MAM, t.Year()
	case time.June, time.July, time.August:
		return JJA, t.Year()
	default:
		return SON, t.Year()
	}
}
