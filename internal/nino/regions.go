package nino

import "github.com/couchcryptid/enso-eruption-analysis/internal/domain"

// Nino3 returns the Niño 3 index (5°S–5°N, 150°W–90°W).
func Nino3(field domain.GriddedField) (domain.IndexSeries, error) {
	return ComputeRegionIndex(field, domain.Nino3)
}

// Nino34 returns the Niño 3.4 index (5°S–5°N, 170°W–120°W).
func Nino34(field domain.GriddedField) (domain.IndexSeries, error) {
	return ComputeRegionIndex(field, domain.Nino34)
}

// CalculateNino34 is the notebook name for Nino34.
func CalculateNino34(field domain.GriddedField) (domain.IndexSeries, error) {
	return Nino34(field)
}

// Nino4 returns the Niño 4 index (5°S–5°N, 160°E–150°W).
func Nino4(field domain.GriddedField) (domain.IndexSeries, error) {
	return ComputeRegionIndex(field, domain.Nino4)
}

// GlobalMean returns the cos(lat)-weighted mean over every grid cell.
func GlobalMean(field domain.GriddedField) (domain.IndexSeries, error) {
	return ComputeRegionIndex(field, domain.Global)
}
