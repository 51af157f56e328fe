package bulk

// CH4 Schmidt number polynomial for fresh water, Wanninkhof (2014),
// valid 0–30°C.
const (
	scA = 1897.8
	scB = -114.28
	scC = 3.2902
	scD = -0.039061
)

// SchmidtNumber returns the dimensionless Schmidt number for CH4 at
// the given temperature and salinity. The salinity correction follows
// Jähne et al. (1987): viscosity rises with salinity, so Sc increases
// by 0.85% per PSU.
func SchmidtNumber(tempC, salinityPSU float64) float64 {
	scFresh := scA + scB*tempC + scC*tempC*tempC + scD*tempC*tempC*tempC
	return scFresh * (1.0 + 0.0085*salinityPSU)
}
