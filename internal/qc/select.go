// Package qc selects the surface-representative sample for each
// station and rejects stations whose inputs cannot support a flux
// estimate. Every rejection carries a reason code so the batch report
// can list excluded stations rather than silently dropping them.
package qc

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lox/fjordflux/internal/bulk"
	"github.com/lox/fjordflux/internal/models"
)

// Exclusion reason codes.
const (
	ReasonMissingCH4         = "missing_ch4"
	ReasonNonPositiveCH4     = "non_positive_ch4"
	ReasonMissingTemperature = "missing_temperature"
	ReasonTemperatureRange   = "temperature_out_of_range"
	ReasonNoSurfaceSample    = "no_surface_sample"
	ReasonSalinityInvalid    = "salinity_invalid"
	ReasonInsufficientWind   = "insufficient_wind_coverage"
)

// Advisory flags carried on results that still compute.
const (
	FlagTempBelowSolubilityCalibration = "temp_below_solubility_calibration"
	FlagSalinitySubstituted            = "salinity_substituted"
)

// SalinityPolicy decides what happens to a station whose salinity is
// missing or out of bounds (the -999 sentinel lands here too).
type SalinityPolicy string

const (
	SalinityExclude    SalinityPolicy = "exclude"
	SalinitySeasonMean SalinityPolicy = "season-mean"
)

type Policy struct {
	MaxDepthM      float64 // surface-representative cutoff
	SalinityMinPSU float64
	SalinityMaxPSU float64
	TempMinC       float64 // data domain, not the solubility calibration range
	TempMaxC       float64
	Salinity       SalinityPolicy
}

func DefaultPolicy() Policy {
	return Policy{
		MaxDepthM:      5.0,
		SalinityMinPSU: 0,
		SalinityMaxPSU: 42,
		TempMinC:       -2,
		TempMaxC:       30,
		Salinity:       SalinityExclude,
	}
}

// Surface is the accepted representative sample for a station, with
// the salinity actually used (possibly substituted) and any advisory
// flags for the result row.
type Surface struct {
	Sample         models.StationSample
	SalinityPSU    float64
	SalinitySource string
	Flags          []string
}

// SelectSurfaceSample picks the minimum-depth valid sample among a
// station's records. seasonMeanSalinity backs the season-mean
// substitution policy; when it is null that policy degrades to
// exclusion. Returns the surface sample or the exclusion, never both.
func SelectSurfaceSample(records []models.StationSample, seasonMeanSalinity sql.NullFloat64, p Policy) (*Surface, *models.Exclusion) {
	if len(records) == 0 {
		return nil, nil
	}
	stationID := records[0].StationID
	seasonYear := records[0].SeasonYear

	exclude := func(reason, detail string) (*Surface, *models.Exclusion) {
		return nil, &models.Exclusion{
			SeasonYear: seasonYear,
			StationID:  stationID,
			Reason:     reason,
			Detail:     detail,
		}
	}

	// Depth filter first: deep casts are never representative of the
	// air-sea interface, whatever else they carry.
	var surface []models.StationSample
	minDepthSeen := records[0].DepthM
	for _, rec := range records {
		if rec.DepthM < minDepthSeen {
			minDepthSeen = rec.DepthM
		}
		if rec.DepthM <= p.MaxDepthM {
			surface = append(surface, rec)
		}
	}
	if len(surface) == 0 {
		return exclude(ReasonNoSurfaceSample, fmt.Sprintf("shallowest sample %.1f m exceeds %.1f m threshold", minDepthSeen, p.MaxDepthM))
	}

	best := surface[0]
	for _, rec := range surface[1:] {
		if rec.DepthM < best.DepthM {
			best = rec
		}
	}

	if !best.CH4NM.Valid {
		return exclude(ReasonMissingCH4, fmt.Sprintf("no CH4 value at %.1f m", best.DepthM))
	}
	if best.CH4NM.Float64 <= 0 {
		return exclude(ReasonNonPositiveCH4, fmt.Sprintf("CH4 %.3f nM", best.CH4NM.Float64))
	}
	if !best.TemperatureC.Valid {
		return exclude(ReasonMissingTemperature, fmt.Sprintf("no temperature at %.1f m", best.DepthM))
	}
	if t := best.TemperatureC.Float64; t < p.TempMinC || t > p.TempMaxC {
		return exclude(ReasonTemperatureRange, fmt.Sprintf("%.2f °C outside [%.1f, %.1f]", t, p.TempMinC, p.TempMaxC))
	}

	out := &Surface{Sample: best}

	salinityOK := best.SalinityPSU.Valid &&
		best.SalinityPSU.Float64 >= p.SalinityMinPSU &&
		best.SalinityPSU.Float64 <= p.SalinityMaxPSU
	switch {
	case salinityOK:
		out.SalinityPSU = best.SalinityPSU.Float64
		out.SalinitySource = models.SalinityMeasured
	case p.Salinity == SalinitySeasonMean && seasonMeanSalinity.Valid:
		out.SalinityPSU = seasonMeanSalinity.Float64
		out.SalinitySource = models.SalinitySeasonMean
		out.Flags = append(out.Flags, FlagSalinitySubstituted)
	default:
		detail := "salinity missing"
		if best.SalinityPSU.Valid {
			detail = fmt.Sprintf("salinity %.2f PSU outside [%.1f, %.1f]", best.SalinityPSU.Float64, p.SalinityMinPSU, p.SalinityMaxPSU)
		}
		return exclude(ReasonSalinityInvalid, detail)
	}

	// Sub-calibration temperatures compute but carry a flag; Arctic
	// surface water is routinely below the solubility fit's 2°C floor.
	if !bulk.InSolubilityCalibration(best.TemperatureC.Float64) {
		out.Flags = append(out.Flags, FlagTempBelowSolubilityCalibration)
	}

	return out, nil
}

// FlagsToJSON renders advisory flags for the result row; empty slice
// renders as the empty string.
func FlagsToJSON(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	b, _ := json.Marshal(flags)
	return string(b)
}
