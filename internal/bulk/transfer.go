package bulk

import "math"

// TransferVelocity returns the gas transfer velocity k in cm/hr from
// the window-averaged squared 10 m wind speed (m²/s²) and the Schmidt
// number:
//
//	k = coeff × <U10²> × (Sc/ScRef)^-0.5
//
// k is linear in <U10²>, which is why the aggregator must average
// squared speeds rather than squaring the average.
func TransferVelocity(meanU10Squared, schmidtNumber float64, p Params) float64 {
	return p.TransferCoeff * meanU10Squared * math.Pow(schmidtNumber/p.SchmidtRef, -0.5)
}

// KMPerDay converts a transfer velocity from cm/hr to m/day.
func KMPerDay(kCmPerHr float64) float64 {
	return kCmPerHr * 0.01 * 24
}
