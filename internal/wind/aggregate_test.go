package wind

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lox/fjordflux/internal/models"
)

var sampleTime = time.Date(2023, 7, 15, 12, 0, 0, 0, time.UTC)

func seriesAt(speeds []float64, center time.Time, spacing time.Duration) []models.WindRecord {
	recs := make([]models.WindRecord, len(speeds))
	start := center.Add(-spacing * time.Duration(len(speeds)/2))
	for i, s := range speeds {
		recs[i] = models.WindRecord{
			ObservedAt:  start.Add(spacing * time.Duration(i)),
			WindSpeedMS: s,
		}
	}
	return recs
}

func TestForSample_MeanOfSquaresNotSquareOfMean(t *testing.T) {
	cfg := DefaultConfig(10) // height 10 m isolates the averaging from the correction
	series := seriesAt([]float64{2, 4, 6, 8}, sampleTime, time.Hour)

	agg, err := ForSample(series, sampleTime, cfg)
	if err != nil {
		t.Fatalf("ForSample: %v", err)
	}

	wantMeanSq := (4.0 + 16 + 36 + 64) / 4 // 30
	if math.Abs(agg.MeanU2Raw-wantMeanSq) > 1e-12 {
		t.Errorf("MeanU2Raw = %v, want %v", agg.MeanU2Raw, wantMeanSq)
	}
	squareOfMean := 5.0 * 5.0
	if agg.MeanU2Raw <= squareOfMean {
		t.Errorf("mean(u²) = %v not > mean(u)² = %v; aggregator is squaring the mean", agg.MeanU2Raw, squareOfMean)
	}
}

func TestForSample_VarianceEffect(t *testing.T) {
	// Jensen: any non-constant series has mean(u²) > mean(u)² strictly.
	cfg := DefaultConfig(10)
	for _, speeds := range [][]float64{
		{1, 2},
		{0, 5, 10},
		{3.2, 3.3, 3.1, 3.4},
	} {
		series := seriesAt(speeds, sampleTime, time.Hour)
		agg, err := ForSample(series, sampleTime, cfg)
		if err != nil {
			t.Fatalf("ForSample(%v): %v", speeds, err)
		}
		var sum float64
		for _, s := range speeds {
			sum += s
		}
		mean := sum / float64(len(speeds))
		if agg.MeanU2Raw <= mean*mean {
			t.Errorf("speeds %v: mean(u²) = %v, want strictly > mean(u)² = %v", speeds, agg.MeanU2Raw, mean*mean)
		}
	}
}

func TestForSample_HeightCorrectionDoublesExponent(t *testing.T) {
	cfg := DefaultConfig(6.75)
	series := seriesAt([]float64{5, 5, 5, 5}, sampleTime, time.Hour)

	agg, err := ForSample(series, sampleTime, cfg)
	if err != nil {
		t.Fatalf("ForSample: %v", err)
	}

	want := 25.0 * math.Pow(10.0/6.75, 0.40)
	if math.Abs(agg.MeanU10Squared-want) > 1e-9 {
		t.Errorf("MeanU10Squared = %v, want %v (exponent 2α on the squared quantity)", agg.MeanU10Squared, want)
	}
	if math.Abs(agg.EquivalentU10-math.Sqrt(want)) > 1e-9 {
		t.Errorf("EquivalentU10 = %v, want sqrt(%v)", agg.EquivalentU10, want)
	}
}

func TestForSample_ConstantWindConventionsAgree(t *testing.T) {
	// With zero variance the two conventions must give the same
	// corrected squared wind, since (c·mean(u))² = c²·mean(u²).
	series := seriesAt([]float64{6, 6, 6, 6, 6, 6}, sampleTime.Add(-3*time.Hour), time.Hour)

	msCfg := DefaultConfig(6.75)
	legacyCfg := DefaultConfig(6.75)
	legacyCfg.Convention = ConventionLegacy24h

	ms, err := ForSample(series, sampleTime, msCfg)
	if err != nil {
		t.Fatalf("mean-square: %v", err)
	}
	legacy, err := ForSample(series, sampleTime, legacyCfg)
	if err != nil {
		t.Fatalf("legacy: %v", err)
	}
	if math.Abs(ms.MeanU10Squared-legacy.MeanU10Squared) > 1e-9 {
		t.Errorf("constant wind: mean-square %v != legacy %v", ms.MeanU10Squared, legacy.MeanU10Squared)
	}
}

func TestForSample_LegacyWindowIsTrailing24h(t *testing.T) {
	cfg := DefaultConfig(6.75)
	cfg.Convention = ConventionLegacy24h
	cfg.MinRecords = 1

	series := []models.WindRecord{
		{ObservedAt: sampleTime.Add(-25 * time.Hour), WindSpeedMS: 100}, // before window
		{ObservedAt: sampleTime.Add(-12 * time.Hour), WindSpeedMS: 4},
		{ObservedAt: sampleTime.Add(-1 * time.Hour), WindSpeedMS: 6},
		{ObservedAt: sampleTime.Add(time.Hour), WindSpeedMS: 100}, // after sampling
	}
	agg, err := ForSample(series, sampleTime, cfg)
	if err != nil {
		t.Fatalf("ForSample: %v", err)
	}
	if agg.NRecords != 2 {
		t.Fatalf("NRecords = %d, want 2 (trailing 24h window only)", agg.NRecords)
	}
	wantU10 := 5.0 * math.Pow(10.0/6.75, 0.20)
	if math.Abs(agg.EquivalentU10-wantU10) > 1e-9 {
		t.Errorf("EquivalentU10 = %v, want %v", agg.EquivalentU10, wantU10)
	}
}

func TestForSample_MeanSquareWindowIsCentered(t *testing.T) {
	cfg := DefaultConfig(10)
	cfg.WindowDays = 2
	cfg.MinRecords = 1

	series := []models.WindRecord{
		{ObservedAt: sampleTime.Add(-30 * time.Hour), WindSpeedMS: 100}, // outside
		{ObservedAt: sampleTime.Add(-20 * time.Hour), WindSpeedMS: 3},
		{ObservedAt: sampleTime.Add(20 * time.Hour), WindSpeedMS: 3}, // after sampling, still in window
		{ObservedAt: sampleTime.Add(30 * time.Hour), WindSpeedMS: 100},
	}
	agg, err := ForSample(series, sampleTime, cfg)
	if err != nil {
		t.Fatalf("ForSample: %v", err)
	}
	if agg.NRecords != 2 {
		t.Errorf("NRecords = %d, want 2 (centered ±1 day window)", agg.NRecords)
	}
}

func TestForSample_InsufficientCoverage(t *testing.T) {
	cfg := DefaultConfig(6.75)
	series := seriesAt([]float64{5, 5}, sampleTime, time.Hour)

	_, err := ForSample(series, sampleTime, cfg)
	if !errors.Is(err, ErrInsufficientCoverage) {
		t.Errorf("err = %v, want ErrInsufficientCoverage", err)
	}

	_, err = ForSample(nil, sampleTime, cfg)
	if !errors.Is(err, ErrInsufficientCoverage) {
		t.Errorf("empty series: err = %v, want ErrInsufficientCoverage", err)
	}
}
