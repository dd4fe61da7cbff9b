package domain

import (
	"fmt"
	"slices"
	"time"
)

// Dims is the shape of a GriddedField.
type Dims struct {
	Members int `json:"members"`
	Time    int `json:"time"`
	Lat     int `json:"lat"`
	Lon     int `json:"lon"`
}

// Size returns the number of values a field of this shape holds.
func (d Dims) Size() int {
	return d.Members * d.Time * d.Lat * d.Lon
}

// GriddedField is a member × time × lat × lon array of a temperature-like
// quantity. Data is flat in member-major order; see the package docs.
type GriddedField struct {
	Variable string
	Dims     Dims

	// MemberIDs labels each member. Empty means 0..Members-1.
	MemberIDs []int
	// Time holds one monthly timestamp per step. Optional unless an
	// operation needs calendar months.
	Time []time.Time
	Lat  []float64
	Lon  []float64
	Data []float64
}

// NewGriddedField allocates a zero-valued field over the given grid.
func NewGriddedField(memberIDs []int, steps int, lat, lon []float64) GriddedField {
	dims := Dims{Members: len(memberIDs), Time: steps, Lat: len(lat), Lon: len(lon)}
	return GriddedField{
		Variable:  "TS",
		Dims:      dims,
		MemberIDs: slices.Clone(memberIDs),
		Lat:       slices.Clone(lat),
		Lon:       slices.Clone(lon),
		Data:      make([]float64, dims.Size()),
	}
}

// Validate checks that the data buffer and label vectors agree with Dims and
// that member IDs are unique.
// Coordinate vectors are checked separately by region selection.
func (f GriddedField) Validate() error {
	d := f.Dims
	if d.Members < 1 || d.Time < 1 || d.Lat < 1 || d.Lon < 1 {
		return fmt.Errorf("%w: every axis needs at least one element, got %+v", ErrInvalidField, d)
	}
	if len(f.Data) != d.Size() {
		return fmt.Errorf("%w: data has %d values, shape %+v needs %d", ErrInvalidField, len(f.Data), d, d.Size())
	}
	if len(f.MemberIDs) != 0 && len(f.MemberIDs) != d.Members {
		return fmt.Errorf("%w: %d member IDs for %d members", ErrInvalidField, len(f.MemberIDs), d.Members)
	}
	seen := make(map[int]struct{}, len(f.MemberIDs))
	for _, id := range f.MemberIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: member ID %d appears twice", ErrInvalidField, id)
		}
		seen[id] = struct{}{}
	}
	if len(f.Time) != 0 && len(f.Time) != d.Time {
		return fmt.Errorf("%w: %d timestamps for %d steps", ErrInvalidField, len(f.Time), d.Time)
	}
	return nil
}

// Members returns the member IDs, defaulting to 0..Members-1.
func (f GriddedField) Members() []int {
	if len(f.MemberIDs) == f.Dims.Members {
		return slices.Clone(f.MemberIDs)
	}
	ids := make([]int, f.Dims.Members)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// HasTime reports whether every step carries a timestamp.
func (f GriddedField) HasTime() bool {
	return f.Dims.Time > 0 && len(f.Time) == f.Dims.Time
}

// Offset returns the flat index of (member, step, lat, lon).
func (f GriddedField) Offset(m, t, i, j int) int {
	return ((m*f.Dims.Time+t)*f.Dims.Lat+i)*f.Dims.Lon + j
}

func (f GriddedField) At(m, t, i, j int) float64 {
	return f.Data[f.Offset(m, t, i, j)]
}

func (f GriddedField) Set(m, t, i, j int, v float64) {
	f.Data[f.Offset(m, t, i, j)] = v
}

// Plane returns the lat × lon slab for one member and step. The slice aliases
// the field's data.
func (f GriddedField) Plane(m, t int) []float64 {
	start := f.Offset(m, t, 0, 0)
	return f.Data[start : start+f.Dims.Lat*f.Dims.Lon]
}

// Clone returns a deep copy.
func (f GriddedField) Clone() GriddedField {
	out := f
	out.MemberIDs = slices.Clone(f.MemberIDs)
	out.Time = slices.Clone(f.Time)
	out.Lat = slices.Clone(f.Lat)
	out.Lon = slices.Clone(f.Lon)
	out.Data = slices.Clone(f.Data)
	return out
}

// SameGrid reports whether two fields share latitude and longitude coordinates.
func (f GriddedField) SameGrid(other GriddedField) bool {
	return slices.Equal(f.Lat, other.Lat) && slices.Equal(f.Lon, other.Lon)
}
