package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SamplesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fjordflux_samples_ingested_total",
			Help: "Water chemistry samples ingested",
		},
		[]string{"season"},
	)

	WindRecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fjordflux_wind_records_ingested_total",
			Help: "Wind records ingested",
		},
		[]string{"season"},
	)

	StationsExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fjordflux_stations_excluded_total",
			Help: "Stations excluded by QC, by reason",
		},
		[]string{"season", "reason"},
	)

	FluxesComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fjordflux_fluxes_computed_total",
			Help: "Per-station flux results computed",
		},
		[]string{"season", "convention"},
	)

	AtmosFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fjordflux_atmos_fetches_total",
			Help: "NOAA GML atmospheric CH4 record fetches",
		},
		[]string{"transport", "status"},
	)
)
