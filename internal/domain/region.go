package domain

import (
	"fmt"
	"math"
)

// Region is a latitude/longitude box. Longitudes are degrees east in either
// the -180..180 or 0..360 convention; the box runs eastward from LonWest to
// LonEast.
type Region struct {
	Name    string  `json:"name"`
	LatMin  float64 `json:"lat_min"`
	LatMax  float64 `json:"lat_max"`
	LonWest float64 `json:"lon_west"`
	LonEast float64 `json:"lon_east"`
}

// Fixed ENSO monitoring regions, plus the whole globe.
var (
	Nino3  = Region{Name: "nino3", LatMin: -5, LatMax: 5, LonWest: -150, LonEast: -90}
	Nino34 = Region{Name: "nino34", LatMin: -5, LatMax: 5, LonWest: -170, LonEast: -120}
	Nino4  = Region{Name: "nino4", LatMin: -5, LatMax: 5, LonWest: 160, LonEast: -150}
	Global = Region{Name: "global", LatMin: -90, LatMax: 90, LonWest: 0, LonEast: 360}
)

// LonInterval is a closed longitude interval in [0, 360].
type LonInterval struct {
	Lo, Hi float64
}

// Contains reports whether a longitude, in either convention, falls inside.
func (iv LonInterval) Contains(lon float64) bool {
	x := NormalizeLon(lon)
	return x >= iv.Lo && x <= iv.Hi
}

// NormalizeLon maps a longitude to [0, 360).
func NormalizeLon(lon float64) float64 {
	x := math.Mod(lon, 360)
	if x < 0 {
		x += 360
	}
	return x
}

// Validate checks the latitude bounds.
func (r Region) Validate() error {
	if math.IsNaN(r.LatMin) || math.IsNaN(r.LatMax) || math.IsNaN(r.LonWest) || math.IsNaN(r.LonEast) {
		return fmt.Errorf("%w: region %q has NaN bounds", ErrRegionOutOfBounds, r.Name)
	}
	if r.LatMin > r.LatMax {
		return fmt.Errorf("%w: region %q latitude %g > %g", ErrRegionOutOfBounds, r.Name, r.LatMin, r.LatMax)
	}
	if r.LatMax < -90 || r.LatMin > 90 {
		return fmt.Errorf("%w: region %q latitude outside [-90, 90]", ErrRegionOutOfBounds, r.Name)
	}
	return nil
}

// LonIntervals returns the longitude coverage as one interval, or two
// disjoint intervals when the box crosses the 0°/360° seam.
func (r Region) LonIntervals() []LonInterval {
	if r.LonEast-r.LonWest >= 360 {
		return []LonInterval{{Lo: 0, Hi: 360}}
	}
	w, e := NormalizeLon(r.LonWest), NormalizeLon(r.LonEast)
	if w <= e {
		return []LonInterval{{Lo: w, Hi: e}}
	}
	return []LonInterval{{Lo: w, Hi: 360}, {Lo: 0, Hi: e}}
}

// ContainsLon reports whether a longitude lies inside the region.
func (r Region) ContainsLon(lon float64) bool {
	for _, iv := range r.LonIntervals() {
		if iv.Contains(lon) {
			return true
		}
	}
	return false
}

// ContainsLat reports whether a latitude lies inside the region.
func (r Region) ContainsLat(lat float64) bool {
	return lat >= r.LatMin && lat <= r.LatMax
}
