package batch

import (
	"sort"

	"github.com/GaryBoone/GoStats/stats"

	"github.com/lox/fjordflux/internal/models"
)

// Summarize describes the distribution of valid flux values. A run
// with no valid stations yields a zeroed summary with the exclusion
// count intact; the caller reports it rather than aborting.
func Summarize(seasonYear int, convention string, fluxes []float64, nExcluded int) models.SummaryStats {
	summary := models.SummaryStats{
		SeasonYear: seasonYear,
		Convention: convention,
		NValid:     len(fluxes),
		NExcluded:  nExcluded,
	}
	if len(fluxes) == 0 {
		return summary
	}

	summary.Mean = stats.StatsMean(fluxes)
	summary.Min = stats.StatsMin(fluxes)
	summary.Max = stats.StatsMax(fluxes)
	if len(fluxes) > 1 {
		summary.StdDev = stats.StatsSampleStandardDeviation(fluxes)
	}
	summary.Median = median(fluxes)
	return summary
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
