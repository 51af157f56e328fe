package models

import (
	"database/sql"
	"time"
)

// Season holds the per-campaign metadata that every station in that
// campaign shares: the weather station the wind series came from, its
// anemometer height, and the seasonal atmospheric CH4 reference.
type Season struct {
	Year              int
	Name              string
	WeatherStation    string
	AnemometerHeightM float64
	AtmCH4PPB         sql.NullFloat64
	AtmCH4Source      string // "manual" or "noaa-gml"
}

// StationSample is one discrete water-chemistry sample. Fields that can
// be absent in the source tables (or carry the -999 sentinel) are null
// rather than sentinel-valued; the sentinel never reaches arithmetic.
type StationSample struct {
	ID               int64
	SeasonYear       int
	StationID        string
	SampledAt        time.Time
	DepthM           float64
	CH4NM            sql.NullFloat64
	CH4SaturationPct sql.NullFloat64
	TemperatureC     sql.NullFloat64
	SalinityPSU      sql.NullFloat64
	Latitude         sql.NullFloat64
	Longitude        sql.NullFloat64
}

// WindRecord is one wind-speed observation at the season's weather
// station, measured at the station's anemometer height.
type WindRecord struct {
	ID          int64
	SeasonYear  int
	ObservedAt  time.Time
	WindSpeedMS float64
}

const (
	SalinityMeasured   = "measured"
	SalinitySeasonMean = "season_mean"
)

// FluxResult is the terminal artifact: one row per station that passed
// QC, with every intermediate of the formula chain kept for audit.
type FluxResult struct {
	SeasonYear       int
	Convention       string
	StationID        string
	SampledAt        time.Time
	DepthM           float64
	CH4NM            float64
	CH4SaturationPct sql.NullFloat64
	TemperatureC     float64
	SalinityPSU      float64
	SalinitySource   string
	Latitude         sql.NullFloat64
	Longitude        sql.NullFloat64
	AtmCH4PPB        float64

	MeanU2Raw      float64 // m²/s² at anemometer height
	MeanU10Squared float64 // m²/s² corrected to 10 m
	EquivalentU10  float64 // m/s, reporting only
	SchmidtNumber  float64
	KCmPerHr       float64
	KMPerDay       float64
	CSatNM         float64
	DeltaCNM       float64
	FluxUmolM2Day  float64
	NWindRecords   int

	QCFlags string // JSON array of advisory flags, empty when clean
}

// Exclusion records a station that QC rejected, with the reason code
// and the offending value. Excluded stations are reported, not dropped.
type Exclusion struct {
	SeasonYear int
	Convention string
	StationID  string
	Reason     string
	Detail     string
}

// SummaryStats describes the distribution of valid flux values for one
// season and averaging convention.
type SummaryStats struct {
	SeasonYear int
	Convention string
	NValid     int
	NExcluded  int
	Mean       float64
	Median     float64
	StdDev     float64
	Min        float64
	Max        float64
}
