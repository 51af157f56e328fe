package bulk

import (
	"math"
	"testing"
)

func TestFlux_UnitCancellationIdentity(t *testing.T) {
	// nM is nmol/L; L→m³ (×1000) cancels nmol→μmol (÷1000), so the
	// flux in μmol/m²/day is exactly k[m/day] × ΔC[nM] with no scale
	// factor. Any hidden ×1000 reproduces a documented defect.
	tests := []struct {
		k, measured, cSat float64
	}{
		{0.2305, 7.04, 4.23},
		{1.357, 7.04, 4.23},
		{0.5, 3.0, 5.0}, // undersaturated, absorption
		{2.0, 100, 4.0},
		{0, 7, 4},
	}
	for _, tt := range tests {
		flux, delta := Flux(tt.k, tt.measured, tt.cSat)
		if delta != tt.measured-tt.cSat {
			t.Errorf("deltaC = %v, want %v", delta, tt.measured-tt.cSat)
		}
		if flux != tt.k*delta {
			t.Errorf("flux = %v, want exactly k*deltaC = %v", flux, tt.k*delta)
		}
	}
}

func TestFlux_SignConvention(t *testing.T) {
	supersaturated, _ := Flux(1.0, 7.04, 4.23)
	if supersaturated <= 0 {
		t.Errorf("supersaturated water gave flux %v, want positive (sea to air)", supersaturated)
	}
	undersaturated, _ := Flux(1.0, 2.0, 4.23)
	if undersaturated >= 0 {
		t.Errorf("undersaturated water gave flux %v, want negative (absorption)", undersaturated)
	}
}

func TestFlux_ReferenceStationBothConventions(t *testing.T) {
	p := DefaultParams()
	sc := SchmidtNumber(0.43, 23.71)
	cSat := SaturationConcentration(0.43, 23.71, 1986.65)

	// Mean-square convention: <U10²> = 7.02 m²/s².
	k := KMPerDay(TransferVelocity(7.02, sc, p))
	flux, _ := Flux(k, 7.04, cSat)
	if math.Abs(flux-0.649) > 0.01 {
		t.Errorf("mean-square flux = %.4f, want 0.649 ± 0.01 μmol/m²/day", flux)
	}

	// Legacy convention: U10 = 6.43 m/s.
	kLegacy := KMPerDay(TransferVelocity(6.43*6.43, sc, p))
	fluxLegacy, _ := Flux(kLegacy, 7.04, cSat)
	if math.Abs(fluxLegacy-3.82) > 0.03 {
		t.Errorf("legacy flux = %.4f, want 3.82 ± 0.03 μmol/m²/day", fluxLegacy)
	}

	// Both land inside the documented 0.6–3.8(+) verification band
	// and remain clearly distinguishable.
	if fluxLegacy/flux < 5 {
		t.Errorf("conventions not distinguishable: legacy %.3f vs mean-square %.3f", fluxLegacy, flux)
	}
}
