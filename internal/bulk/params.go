// Package bulk implements the air-sea gas exchange formula chain:
// Henry's law solubility, Schmidt number, gas transfer velocity, and
// bulk flux. All functions are pure; every coefficient they use comes
// in through Params so alternative parameterizations can be evaluated
// side by side.
package bulk

// Params carries the transfer-velocity parameterization.
type Params struct {
	// TransferCoeff is the Wanninkhof quadratic coefficient in
	// (cm/hr)/(m²/s²). 0.251 is Wanninkhof (2014); 0.31 is the older
	// Wanninkhof (1992) value.
	TransferCoeff float64

	// SchmidtRef is the Schmidt number the coefficient is normalized
	// to. 660 is CO2 in seawater at 20°C, the modern convention.
	SchmidtRef float64
}

// DefaultParams returns the Wanninkhof (2014) parameterization.
func DefaultParams() Params {
	return Params{
		TransferCoeff: 0.251,
		SchmidtRef:    660,
	}
}
