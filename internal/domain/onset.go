package domain

import "strings"

// Onset is the calendar month an eruption experiment begins in.
type Onset string

const (
	January Onset = "January"
	April   Onset = "April"
	July    Onset = "July"
	October Onset = "October"
)

// Onsets lists the compared experiments in canonical order.
var Onsets = []Onset{January, April, July, October}

// ParseOnset normalizes an experiment label such as "January_1x" or "july".
// The second result is false for labels that are not one of the four onsets.
func ParseOnset(label string) (Onset, bool) {
	name, _, _ := strings.Cut(strings.TrimSpace(label), "_")
	for _, o := range Onsets {
		if strings.EqualFold(name, string(o)) {
			return o, true
		}
	}
	return "", false
}

// Label returns the experiment directory name used by the 1x-strength runs.
func (o Onset) Label() string {
	return string(o) + "_1x"
}
