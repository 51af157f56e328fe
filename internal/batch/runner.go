// Package batch runs the per-season flux computation: QC selection,
// wind aggregation and the formula chain for every station, then the
// season summary. Station failures stay local; one bad station never
// aborts the batch.
package batch

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/lox/fjordflux/internal/bulk"
	"github.com/lox/fjordflux/internal/metrics"
	"github.com/lox/fjordflux/internal/models"
	"github.com/lox/fjordflux/internal/qc"
	"github.com/lox/fjordflux/internal/wind"
)

type Config struct {
	Params bulk.Params
	Policy qc.Policy
	Wind   wind.Config
}

// Run is the complete outcome of one season computation.
type Run struct {
	Results    []models.FluxResult
	Exclusions []models.Exclusion
	Summary    models.SummaryStats
}

// RunSeason computes fluxes for every station of a season. The inputs
// are immutable; stations are processed in station-id order so
// identical inputs always produce identical output tables.
func RunSeason(season models.Season, samples []models.StationSample, windSeries []models.WindRecord, cfg Config) (*Run, error) {
	if !season.AtmCH4PPB.Valid {
		return nil, fmt.Errorf("season %d has no atmospheric CH4 reference; run fetch-atmos or pass --atm-ch4", season.Year)
	}
	if cfg.Wind.AnemometerHeightM == 0 {
		cfg.Wind.AnemometerHeightM = season.AnemometerHeightM
	}
	convention := string(cfg.Wind.Convention)

	byStation := make(map[string][]models.StationSample)
	for _, s := range samples {
		byStation[s.StationID] = append(byStation[s.StationID], s)
	}
	stationIDs := make([]string, 0, len(byStation))
	for id := range byStation {
		stationIDs = append(stationIDs, id)
	}
	sort.Strings(stationIDs)

	seasonMeanSalinity, err := seasonMeanSurfaceSalinity(samples, cfg.Policy.MaxDepthM)
	if err != nil && cfg.Policy.Salinity == qc.SalinitySeasonMean {
		log.Printf("batch: %v; season-mean substitution unavailable", err)
	}

	run := &Run{}
	for _, stationID := range stationIDs {
		surface, exclusion := qc.SelectSurfaceSample(byStation[stationID], seasonMeanSalinity, cfg.Policy)
		if exclusion != nil {
			exclusion.Convention = convention
			run.Exclusions = append(run.Exclusions, *exclusion)
			metrics.StationsExcluded.WithLabelValues(fmt.Sprint(season.Year), exclusion.Reason).Inc()
			log.Printf("batch: station %s excluded: %s (%s)", stationID, exclusion.Reason, exclusion.Detail)
			continue
		}
		if surface == nil {
			continue
		}

		agg, err := wind.ForSample(windSeries, surface.Sample.SampledAt, cfg.Wind)
		if err != nil {
			if !errors.Is(err, wind.ErrInsufficientCoverage) {
				return nil, fmt.Errorf("wind aggregation for %s: %w", stationID, err)
			}
			excl := models.Exclusion{
				SeasonYear: season.Year,
				Convention: convention,
				StationID:  stationID,
				Reason:     qc.ReasonInsufficientWind,
				Detail:     err.Error(),
			}
			run.Exclusions = append(run.Exclusions, excl)
			metrics.StationsExcluded.WithLabelValues(fmt.Sprint(season.Year), excl.Reason).Inc()
			log.Printf("batch: station %s excluded: %s", stationID, err)
			continue
		}

		run.Results = append(run.Results, computeResult(season, convention, *surface, agg, cfg.Params))
		metrics.FluxesComputed.WithLabelValues(fmt.Sprint(season.Year), convention).Inc()
	}

	fluxes := make([]float64, len(run.Results))
	for i, r := range run.Results {
		fluxes[i] = r.FluxUmolM2Day
	}
	run.Summary = Summarize(season.Year, convention, fluxes, len(run.Exclusions))

	if run.Summary.NValid == 0 {
		log.Printf("batch: season %d produced no valid fluxes (%d stations excluded)", season.Year, run.Summary.NExcluded)
	} else {
		log.Printf("batch: season %d %s: n=%d mean=%.2f median=%.2f std=%.2f min=%.2f max=%.2f μmol/m²/day",
			season.Year, convention, run.Summary.NValid, run.Summary.Mean, run.Summary.Median,
			run.Summary.StdDev, run.Summary.Min, run.Summary.Max)
	}
	return run, nil
}

// computeResult evaluates the formula chain for one accepted station:
// saturation concentration, Schmidt number, transfer velocity, flux,
// in dependency order. Each step is a pure function of the previous
// outputs and the station's own fields.
func computeResult(season models.Season, convention string, surface qc.Surface, agg wind.Aggregate, p bulk.Params) models.FluxResult {
	sample := surface.Sample
	tempC := sample.TemperatureC.Float64
	atmPPB := season.AtmCH4PPB.Float64

	cSat := bulk.SaturationConcentration(tempC, surface.SalinityPSU, atmPPB)
	sc := bulk.SchmidtNumber(tempC, surface.SalinityPSU)
	kCmPerHr := bulk.TransferVelocity(agg.MeanU10Squared, sc, p)
	kMPerDay := bulk.KMPerDay(kCmPerHr)
	flux, deltaC := bulk.Flux(kMPerDay, sample.CH4NM.Float64, cSat)

	return models.FluxResult{
		SeasonYear:       season.Year,
		Convention:       convention,
		StationID:        sample.StationID,
		SampledAt:        sample.SampledAt,
		DepthM:           sample.DepthM,
		CH4NM:            sample.CH4NM.Float64,
		CH4SaturationPct: sample.CH4SaturationPct,
		TemperatureC:     tempC,
		SalinityPSU:      surface.SalinityPSU,
		SalinitySource:   surface.SalinitySource,
		Latitude:         sample.Latitude,
		Longitude:        sample.Longitude,
		AtmCH4PPB:        atmPPB,
		MeanU2Raw:        agg.MeanU2Raw,
		MeanU10Squared:   agg.MeanU10Squared,
		EquivalentU10:    agg.EquivalentU10,
		SchmidtNumber:    sc,
		KCmPerHr:         kCmPerHr,
		KMPerDay:         kMPerDay,
		CSatNM:           cSat,
		DeltaCNM:         deltaC,
		FluxUmolM2Day:    flux,
		NWindRecords:     agg.NRecords,
		QCFlags:          qc.FlagsToJSON(surface.Flags),
	}
}

// seasonMeanSurfaceSalinity mirrors the store's SQL aggregate for
// callers that already hold the samples in memory.
func seasonMeanSurfaceSalinity(samples []models.StationSample, maxDepthM float64) (sql.NullFloat64, error) {
	var sum float64
	n := 0
	for _, s := range samples {
		if s.DepthM <= maxDepthM && s.SalinityPSU.Valid && s.SalinityPSU.Float64 >= 0 {
			sum += s.SalinityPSU.Float64
			n++
		}
	}
	if n == 0 {
		return sql.NullFloat64{}, errors.New("no valid surface salinities in season")
	}
	return sql.NullFloat64{Float64: sum / float64(n), Valid: true}, nil
}
