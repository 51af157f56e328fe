// Package report writes the flat output tables: flux results with
// every intermediate of the formula chain, the exclusion list, and the
// season summary. Plain CSV, one header row, stable column order.
package report

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/lox/fjordflux/internal/models"
)

var resultColumns = []string{
	"season_year", "convention", "station_id", "sampled_at", "depth_m",
	"ch4_nm", "ch4_saturation_pct", "temperature_c", "salinity_psu",
	"salinity_source", "latitude", "longitude", "atm_ch4_ppb",
	"mean_u2_raw_m2s2", "mean_u10_squared_m2s2", "equivalent_u10_ms",
	"schmidt_number", "k_cm_hr", "k_m_day", "c_sat_nm", "delta_c_nm",
	"flux_umol_m2_day", "n_wind_records", "qc_flags",
}

// WriteResults emits one row per computed station, ordered as given.
// Null passthrough fields render as empty cells.
func WriteResults(w io.Writer, results []models.FluxResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		row := []string{
			fmt.Sprint(r.SeasonYear),
			r.Convention,
			r.StationID,
			r.SampledAt.UTC().Format(time.RFC3339),
			formatFloat(r.DepthM),
			formatFloat(r.CH4NM),
			formatNull(r.CH4SaturationPct),
			formatFloat(r.TemperatureC),
			formatFloat(r.SalinityPSU),
			r.SalinitySource,
			formatNull(r.Latitude),
			formatNull(r.Longitude),
			formatFloat(r.AtmCH4PPB),
			formatFloat(r.MeanU2Raw),
			formatFloat(r.MeanU10Squared),
			formatFloat(r.EquivalentU10),
			formatFloat(r.SchmidtNumber),
			formatFloat(r.KCmPerHr),
			formatFloat(r.KMPerDay),
			formatFloat(r.CSatNM),
			formatFloat(r.DeltaCNM),
			formatFloat(r.FluxUmolM2Day),
			fmt.Sprint(r.NWindRecords),
			r.QCFlags,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write station %s: %w", r.StationID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExclusions emits the rejected-station list.
func WriteExclusions(w io.Writer, exclusions []models.Exclusion) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"season_year", "convention", "station_id", "reason", "detail"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range exclusions {
		row := []string{fmt.Sprint(e.SeasonYear), e.Convention, e.StationID, e.Reason, e.Detail}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write station %s: %w", e.StationID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary emits the single-row distribution summary. A run with
// no valid stations writes empty statistic cells rather than zeros
// that would read as measurements.
func WriteSummary(w io.Writer, s models.SummaryStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"season_year", "convention", "n_valid", "n_excluded", "mean", "median", "std_dev", "min", "max"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := []string{
		fmt.Sprint(s.SeasonYear), s.Convention,
		fmt.Sprint(s.NValid), fmt.Sprint(s.NExcluded),
		"", "", "", "", "",
	}
	if s.NValid > 0 {
		row[4] = formatFloat(s.Mean)
		row[5] = formatFloat(s.Median)
		row[6] = formatFloat(s.StdDev)
		row[7] = formatFloat(s.Min)
		row[8] = formatFloat(s.Max)
	}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.6g", v)
}

func formatNull(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}
