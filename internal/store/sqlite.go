// Package store persists ingested campaign data and computed flux
// results in SQLite. The database is a working dataset, not service
// state: ingest writes it once, runs read it whole.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lox/fjordflux/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UpsertSeason(season models.Season) error {
	_, err := s.db.Exec(`
		INSERT INTO seasons (year, name, weather_station, anemometer_height_m, atm_ch4_ppb, atm_ch4_source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(year) DO UPDATE SET
			name = excluded.name,
			weather_station = excluded.weather_station,
			anemometer_height_m = excluded.anemometer_height_m,
			atm_ch4_ppb = COALESCE(excluded.atm_ch4_ppb, seasons.atm_ch4_ppb),
			atm_ch4_source = CASE WHEN excluded.atm_ch4_ppb IS NULL THEN seasons.atm_ch4_source ELSE excluded.atm_ch4_source END
	`, season.Year, season.Name, season.WeatherStation, season.AnemometerHeightM, season.AtmCH4PPB, season.AtmCH4Source)
	return err
}

func (s *Store) SetSeasonAtmosphere(year int, ppb float64, source string) error {
	res, err := s.db.Exec(`UPDATE seasons SET atm_ch4_ppb = ?, atm_ch4_source = ? WHERE year = ?`, ppb, source, year)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("season %d not found", year)
	}
	return nil
}

func (s *Store) GetSeason(year int) (*models.Season, error) {
	row := s.db.QueryRow(`
		SELECT year, name, weather_station, anemometer_height_m, atm_ch4_ppb, atm_ch4_source
		FROM seasons WHERE year = ?
	`, year)

	var season models.Season
	var source sql.NullString
	err := row.Scan(&season.Year, &season.Name, &season.WeatherStation, &season.AnemometerHeightM, &season.AtmCH4PPB, &source)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	season.AtmCH4Source = source.String
	return &season, nil
}

// ReplaceSamples swaps a season's chemistry table for a fresh ingest.
func (s *Store) ReplaceSamples(year int, samples []models.StationSample) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM station_samples WHERE season_year = ?`, year); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO station_samples (season_year, station_id, sampled_at, depth_m, ch4_nm, ch4_saturation_pct, temperature_c, salinity_psu, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sm := range samples {
		if _, err := stmt.Exec(year, sm.StationID, sm.SampledAt, sm.DepthM, sm.CH4NM, sm.CH4SaturationPct, sm.TemperatureC, sm.SalinityPSU, sm.Latitude, sm.Longitude); err != nil {
			return fmt.Errorf("insert sample %s: %w", sm.StationID, err)
		}
	}
	return tx.Commit()
}

// GetSamples returns a season's samples ordered by station then depth,
// so per-station grouping is a single pass.
func (s *Store) GetSamples(year int) ([]models.StationSample, error) {
	rows, err := s.db.Query(`
		SELECT id, season_year, station_id, sampled_at, depth_m, ch4_nm, ch4_saturation_pct, temperature_c, salinity_psu, latitude, longitude
		FROM station_samples
		WHERE season_year = ?
		ORDER BY station_id, depth_m
	`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.StationSample
	for rows.Next() {
		var sm models.StationSample
		if err := rows.Scan(&sm.ID, &sm.SeasonYear, &sm.StationID, &sm.SampledAt, &sm.DepthM, &sm.CH4NM, &sm.CH4SaturationPct, &sm.TemperatureC, &sm.SalinityPSU, &sm.Latitude, &sm.Longitude); err != nil {
			return nil, err
		}
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}

func (s *Store) ReplaceWindRecords(year int, records []models.WindRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM wind_records WHERE season_year = ?`, year); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO wind_records (season_year, observed_at, wind_speed_ms)
		VALUES (?, ?, ?)
		ON CONFLICT(season_year, observed_at) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(year, rec.ObservedAt, rec.WindSpeedMS); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetWindRecords(year int) ([]models.WindRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, season_year, observed_at, wind_speed_ms
		FROM wind_records
		WHERE season_year = ?
		ORDER BY observed_at
	`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.WindRecord
	for rows.Next() {
		var rec models.WindRecord
		if err := rows.Scan(&rec.ID, &rec.SeasonYear, &rec.ObservedAt, &rec.WindSpeedMS); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SeasonMeanSurfaceSalinity averages valid salinities over the
// season's surface samples; it backs the season-mean substitution
// policy.
func (s *Store) SeasonMeanSurfaceSalinity(year int, maxDepthM float64) (sql.NullFloat64, error) {
	var mean sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT AVG(salinity_psu) FROM station_samples
		WHERE season_year = ? AND depth_m <= ? AND salinity_psu IS NOT NULL AND salinity_psu >= 0
	`, year, maxDepthM).Scan(&mean)
	return mean, err
}

// ReplaceRun stores a run's results, exclusions and summary in one
// transaction, replacing any earlier run for the same season and
// convention.
func (s *Store) ReplaceRun(results []models.FluxResult, exclusions []models.Exclusion, summary models.SummaryStats) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	year, convention := summary.SeasonYear, summary.Convention
	for _, table := range []string{"flux_results", "exclusions"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE season_year = ? AND convention = ?`, year, convention); err != nil {
			return err
		}
	}

	for _, r := range results {
		_, err := tx.Exec(`
			INSERT INTO flux_results (season_year, convention, station_id, sampled_at, depth_m, ch4_nm, ch4_saturation_pct, temperature_c, salinity_psu, salinity_source, latitude, longitude, atm_ch4_ppb, mean_u2_raw, mean_u10_squared, equivalent_u10, schmidt_number, k_cm_per_hr, k_m_per_day, c_sat_nm, delta_c_nm, flux_umol_m2_day, n_wind_records, qc_flags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.SeasonYear, r.Convention, r.StationID, r.SampledAt, r.DepthM, r.CH4NM, r.CH4SaturationPct, r.TemperatureC, r.SalinityPSU, r.SalinitySource, r.Latitude, r.Longitude, r.AtmCH4PPB, r.MeanU2Raw, r.MeanU10Squared, r.EquivalentU10, r.SchmidtNumber, r.KCmPerHr, r.KMPerDay, r.CSatNM, r.DeltaCNM, r.FluxUmolM2Day, r.NWindRecords, r.QCFlags)
		if err != nil {
			return fmt.Errorf("insert result %s: %w", r.StationID, err)
		}
	}

	for _, e := range exclusions {
		if _, err := tx.Exec(`
			INSERT INTO exclusions (season_year, convention, station_id, reason, detail)
			VALUES (?, ?, ?, ?, ?)
		`, e.SeasonYear, e.Convention, e.StationID, e.Reason, e.Detail); err != nil {
			return fmt.Errorf("insert exclusion %s: %w", e.StationID, err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO run_summaries (season_year, convention, n_valid, n_excluded, mean, median, stddev, min, max, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(season_year, convention) DO UPDATE SET
			n_valid = excluded.n_valid,
			n_excluded = excluded.n_excluded,
			mean = excluded.mean,
			median = excluded.median,
			stddev = excluded.stddev,
			min = excluded.min,
			max = excluded.max,
			computed_at = excluded.computed_at
	`, year, convention, summary.NValid, summary.NExcluded, summary.Mean, summary.Median, summary.StdDev, summary.Min, summary.Max, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) GetResults(year int, convention string) ([]models.FluxResult, error) {
	rows, err := s.db.Query(`
		SELECT season_year, convention, station_id, sampled_at, depth_m, ch4_nm, ch4_saturation_pct, temperature_c, salinity_psu, salinity_source, latitude, longitude, atm_ch4_ppb, mean_u2_raw, mean_u10_squared, equivalent_u10, schmidt_number, k_cm_per_hr, k_m_per_day, c_sat_nm, delta_c_nm, flux_umol_m2_day, n_wind_records, qc_flags
		FROM flux_results
		WHERE season_year = ? AND convention = ?
		ORDER BY station_id
	`, year, convention)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.FluxResult
	for rows.Next() {
		var r models.FluxResult
		var flags sql.NullString
		if err := rows.Scan(&r.SeasonYear, &r.Convention, &r.StationID, &r.SampledAt, &r.DepthM, &r.CH4NM, &r.CH4SaturationPct, &r.TemperatureC, &r.SalinityPSU, &r.SalinitySource, &r.Latitude, &r.Longitude, &r.AtmCH4PPB, &r.MeanU2Raw, &r.MeanU10Squared, &r.EquivalentU10, &r.SchmidtNumber, &r.KCmPerHr, &r.KMPerDay, &r.CSatNM, &r.DeltaCNM, &r.FluxUmolM2Day, &r.NWindRecords, &flags); err != nil {
			return nil, err
		}
		r.QCFlags = flags.String
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) GetExclusions(year int, convention string) ([]models.Exclusion, error) {
	rows, err := s.db.Query(`
		SELECT season_year, convention, station_id, reason, detail
		FROM exclusions
		WHERE season_year = ? AND convention = ?
		ORDER BY station_id
	`, year, convention)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exclusions []models.Exclusion
	for rows.Next() {
		var e models.Exclusion
		var detail sql.NullString
		if err := rows.Scan(&e.SeasonYear, &e.Convention, &e.StationID, &e.Reason, &detail); err != nil {
			return nil, err
		}
		e.Detail = detail.String
		exclusions = append(exclusions, e)
	}
	return exclusions, rows.Err()
}

func (s *Store) GetSummary(year int, convention string) (*models.SummaryStats, error) {
	row := s.db.QueryRow(`
		SELECT season_year, convention, n_valid, n_excluded, mean, median, stddev, min, max
		FROM run_summaries
		WHERE season_year = ? AND convention = ?
	`, year, convention)

	var st models.SummaryStats
	err := row.Scan(&st.SeasonYear, &st.Convention, &st.NValid, &st.NExcluded, &st.Mean, &st.Median, &st.StdDev, &st.Min, &st.Max)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
