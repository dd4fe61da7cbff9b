// Package domain models the ensemble surface-temperature data and ENSO
// analysis results for the 1258 Samalas eruption experiments.
//
// # Data Source
//
// Fields come from CESM Last Millennium Ensemble style runs: one ensemble per
// eruption-onset month (January, April, July, October), each with ten members
// of the monthly surface temperature variable "TS" on a regular
// latitude/longitude grid. An upstream loader reads the NetCDF output and
// publishes each experiment as a JSON envelope (see [EnsembleMessage]).
//
// # Grid Conventions
//
// Field layout:
//
//	member × time × lat × lon, stored flat in member-major order:
//	index = ((m*T + t)*NLat + i)*NLon + j
//
// Longitude:
//
//	Either -180..180 or 0..360 degrees east. Regions are normalized to
//	[0, 360) before selection, so "170°W" and "190°E" select the same cells.
//	A box whose western edge is numerically east of its eastern edge after
//	normalization crosses the 0°/360° seam and is split into two intervals.
//
// Latitude weighting:
//
//	Each cell is weighted by cos(latitude). Rows at ±90° carry zero weight.
//
// # ENSO Regions
//
//	Niño 3:   5°S–5°N, 150°W–90°W  (210–270°E)
//	Niño 3.4: 5°S–5°N, 170°W–120°W (190–240°E)
//	Niño 4:   5°S–5°N, 160°E–150°W (160–210°E)
//
// # Phase Classification
//
// A member's phase is read from the mean Niño 3.4 index over the months
// immediately preceding the eruption:
//
//	mean >  high  →  El Nino
//	mean <  low   →  La Nina
//	otherwise     →  Neutral   (values exactly at a threshold are Neutral)
//
// # Time
//
// CESM uses a 365-day ("noleap") calendar. Only the calendar month of each
// time step matters here, so time steps are carried as [time.Time] values on
// the first of the month.
package domain
