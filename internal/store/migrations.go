package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS seasons (
    year INTEGER PRIMARY KEY,
    name TEXT,
    weather_station TEXT,
    anemometer_height_m REAL NOT NULL,
    atm_ch4_ppb REAL,
    atm_ch4_source TEXT
);

CREATE TABLE IF NOT EXISTS station_samples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    season_year INTEGER NOT NULL REFERENCES seasons(year),
    station_id TEXT NOT NULL,
    sampled_at DATETIME NOT NULL,
    depth_m REAL NOT NULL,
    ch4_nm REAL,
    ch4_saturation_pct REAL,
    temperature_c REAL,
    salinity_psu REAL,
    latitude REAL,
    longitude REAL
);

CREATE TABLE IF NOT EXISTS wind_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    season_year INTEGER NOT NULL REFERENCES seasons(year),
    observed_at DATETIME NOT NULL,
    wind_speed_ms REAL NOT NULL,
    UNIQUE(season_year, observed_at)
);

CREATE TABLE IF NOT EXISTS flux_results (
    season_year INTEGER NOT NULL,
    convention TEXT NOT NULL,
    station_id TEXT NOT NULL,
    sampled_at DATETIME NOT NULL,
    depth_m REAL NOT NULL,
    ch4_nm REAL NOT NULL,
    ch4_saturation_pct REAL,
    temperature_c REAL NOT NULL,
    salinity_psu REAL NOT NULL,
    salinity_source TEXT NOT NULL,
    latitude REAL,
    longitude REAL,
    atm_ch4_ppb REAL NOT NULL,
    mean_u2_raw REAL NOT NULL,
    mean_u10_squared REAL NOT NULL,
    equivalent_u10 REAL NOT NULL,
    schmidt_number REAL NOT NULL,
    k_cm_per_hr REAL NOT NULL,
    k_m_per_day REAL NOT NULL,
    c_sat_nm REAL NOT NULL,
    delta_c_nm REAL NOT NULL,
    flux_umol_m2_day REAL NOT NULL,
    n_wind_records INTEGER NOT NULL,
    qc_flags TEXT,
    PRIMARY KEY (season_year, convention, station_id)
);

CREATE TABLE IF NOT EXISTS exclusions (
    season_year INTEGER NOT NULL,
    convention TEXT NOT NULL,
    station_id TEXT NOT NULL,
    reason TEXT NOT NULL,
    detail TEXT,
    PRIMARY KEY (season_year, convention, station_id)
);

CREATE TABLE IF NOT EXISTS run_summaries (
    season_year INTEGER NOT NULL,
    convention TEXT NOT NULL,
    n_valid INTEGER NOT NULL,
    n_excluded INTEGER NOT NULL,
    mean REAL,
    median REAL,
    stddev REAL,
    min REAL,
    max REAL,
    computed_at DATETIME NOT NULL,
    PRIMARY KEY (season_year, convention)
);

CREATE INDEX IF NOT EXISTS idx_samples_season_station ON station_samples(season_year, station_id);
CREATE INDEX IF NOT EXISTS idx_wind_season_time ON wind_records(season_year, observed_at);
`,
	},
}

func (s *Store) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Printf("migrations: applying %d - %s", m.Version, m.Description)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
