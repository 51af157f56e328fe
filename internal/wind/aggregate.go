// Package wind aggregates a weather station's wind series into the
// squared 10 m wind speed the transfer-velocity formula needs. Two
// averaging conventions coexist in the project's history and both are
// kept reproducible: the legacy 24-hour mean-speed matchup and the
// mean-of-squares windowed average.
package wind

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lox/fjordflux/internal/models"
)

type Convention string

const (
	// ConventionMeanSquare averages squared speeds over a window
	// centered on the sampling time, then height-corrects the squared
	// quantity. Squaring before averaging keeps the wind-variance
	// contribution that the quadratic transfer relationship responds
	// to; mean(u)² underestimates it whenever the wind varies.
	ConventionMeanSquare Convention = "mean-square"

	// ConventionLegacy24h reproduces the original matchup: mean speed
	// over the 24 hours preceding sampling, height-corrected linearly,
	// squared afterwards.
	ConventionLegacy24h Convention = "legacy-24h"
)

// ErrInsufficientCoverage reports too few wind records in the
// averaging window to produce a usable mean.
var ErrInsufficientCoverage = errors.New("insufficient wind coverage in window")

type Config struct {
	Convention        Convention
	WindowDays        float64 // mean-square window length, centered on sampling time
	AnemometerHeightM float64 // z_meas for the season's weather station
	Alpha             float64 // power-law exponent, 0.20 rural-suburban
	MinRecords        int
}

func DefaultConfig(anemometerHeightM float64) Config {
	return Config{
		Convention:        ConventionMeanSquare,
		WindowDays:        30,
		AnemometerHeightM: anemometerHeightM,
		Alpha:             0.20,
		MinRecords:        3,
	}
}

// Aggregate is the windowed wind summary for one sampling time.
type Aggregate struct {
	MeanU2Raw      float64 // m²/s² at anemometer height
	MeanU10Squared float64 // m²/s² at 10 m
	EquivalentU10  float64 // sqrt of MeanU10Squared; reporting only
	NRecords       int
}

// ForSample computes the wind aggregate for one sampling timestamp.
// The series must be the season's full record; selection happens here.
func ForSample(series []models.WindRecord, sampledAt time.Time, cfg Config) (Aggregate, error) {
	if cfg.AnemometerHeightM <= 0 {
		return Aggregate{}, fmt.Errorf("anemometer height %.2f m invalid", cfg.AnemometerHeightM)
	}

	var from, to time.Time
	switch cfg.Convention {
	case ConventionLegacy24h:
		from, to = sampledAt.Add(-24*time.Hour), sampledAt
	case ConventionMeanSquare:
		half := time.Duration(cfg.WindowDays * 12 * float64(time.Hour))
		from, to = sampledAt.Add(-half), sampledAt.Add(half)
	default:
		return Aggregate{}, fmt.Errorf("unknown wind convention %q", cfg.Convention)
	}

	var sum, sumSq float64
	n := 0
	for _, rec := range series {
		if rec.ObservedAt.Before(from) || rec.ObservedAt.After(to) {
			continue
		}
		sum += rec.WindSpeedMS
		sumSq += rec.WindSpeedMS * rec.WindSpeedMS
		n++
	}
	if n < cfg.MinRecords {
		return Aggregate{}, fmt.Errorf("%w: %d records, need %d", ErrInsufficientCoverage, n, cfg.MinRecords)
	}

	heightRatio := 10.0 / cfg.AnemometerHeightM
	agg := Aggregate{NRecords: n}
	switch cfg.Convention {
	case ConventionMeanSquare:
		agg.MeanU2Raw = sumSq / float64(n)
		// The corrected quantity is already squared, so the power-law
		// exponent doubles.
		agg.MeanU10Squared = agg.MeanU2Raw * math.Pow(heightRatio, 2*cfg.Alpha)
	case ConventionLegacy24h:
		meanU := sum / float64(n)
		u10 := meanU * math.Pow(heightRatio, cfg.Alpha)
		agg.MeanU2Raw = meanU * meanU
		agg.MeanU10Squared = u10 * u10
	}
	agg.EquivalentU10 = math.Sqrt(agg.MeanU10Squared)
	return agg, nil
}
