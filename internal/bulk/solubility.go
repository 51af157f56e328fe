package bulk

import "math"

// Wiesenburg & Guinasso (1979) CH4 solubility coefficients, Table IV.
// The polynomial yields ln(C) with C in ml(STP) of gas per liter of
// solution per atmosphere.
const (
	wgA1 = -68.8862
	wgA2 = 101.4956
	wgA3 = 28.7314
	wgB1 = -0.076146
	wgB2 = 0.043970
	wgB3 = -0.0068672

	// One mole of ideal gas at STP occupies 22414 ml.
	mlPerMolSTP = 22414.0
)

// Temperature range the Wiesenburg & Guinasso fit was calibrated over.
// Arctic surface water sits below the floor routinely; callers flag
// sub-calibration temperatures rather than refusing them.
const (
	SolubilityCalibMinC = 2.0
	SolubilityCalibMaxC = 30.0
)

// SolubilityConstant returns the Henry's law constant KH for CH4 in
// mol/(L·atm) at the given water temperature and salinity.
//
// The ml(STP)/L/atm polynomial value converts to mol/L/atm as
// C × 1000/22414. Control point: fresh water at 20°C gives
// KH ≈ 1.54e-3 mol/(L·atm), inside the 1.3–1.6e-3 literature band.
// Dropping the ×1000 (or doubling it up) shifts every downstream flux
// by three orders of magnitude, so the control point is pinned by a
// regression test.
func SolubilityConstant(tempC, salinityPSU float64) float64 {
	tK := tempC + 273.15
	lnC := wgA1 +
		wgA2*(100.0/tK) +
		wgA3*math.Log(tK/100.0) +
		salinityPSU*(wgB1+wgB2*(tK/100.0)+wgB3*(tK/100.0)*(tK/100.0))
	return math.Exp(lnC) * 1000.0 / mlPerMolSTP
}

// SaturationConcentration returns the dissolved CH4 concentration in
// nM that would be in equilibrium with the given atmospheric mole
// fraction (ppb). ppb→atm is ×1e-9 and mol/L→nM is ×1e9, so the
// conversions cancel and the result is KH × ppb numerically.
func SaturationConcentration(tempC, salinityPSU, atmCH4PPB float64) float64 {
	kh := SolubilityConstant(tempC, salinityPSU)
	pAtm := atmCH4PPB * 1e-9
	return kh * pAtm * 1e9
}

// InSolubilityCalibration reports whether the temperature is inside
// the calibrated range of the solubility fit.
func InSolubilityCalibration(tempC float64) bool {
	return tempC >= SolubilityCalibMinC && tempC <= SolubilityCalibMaxC
}
