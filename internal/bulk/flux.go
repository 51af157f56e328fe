package bulk

// Flux returns the air-sea CH4 flux in μmol/m²/day and the
// concentration gradient in nM. Positive flux is sea-to-air emission.
//
// Unit cancellation: k[m/day] × ΔC[nmol/L] × 1000 L/m³ = nmol/m²/day
// × 1000 = μmol/m²/day × 1000 ÷ 1000. The L→m³ factor exactly cancels
// the nmol→μmol factor, so the product is the flux with no extra
// scaling. An extra ×1000 or ÷1000 here is the historical
// three-orders-of-magnitude defect.
func Flux(kMPerDay, ch4MeasuredNM, cSatNM float64) (fluxUmolM2Day, deltaCNM float64) {
	deltaCNM = ch4MeasuredNM - cSatNM
	fluxUmolM2Day = kMPerDay * deltaCNM
	return fluxUmolM2Day, deltaCNM
}
