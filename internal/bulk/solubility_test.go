package bulk

import (
	"math"
	"testing"
)

func TestSolubilityConstant_FreshwaterControlPoint(t *testing.T) {
	// Literature control: fresh water at 20°C sits in the
	// 1.3e-3 to 1.6e-3 mol/(L·atm) band. Guards the ml(STP)→mol
	// conversion against dropped or doubled factors of 1000.
	kh := SolubilityConstant(20, 0)
	if kh < 1.3e-3 || kh > 1.6e-3 {
		t.Errorf("SolubilityConstant(20, 0) = %g, want within [1.3e-3, 1.6e-3]", kh)
	}
}

func TestSolubilityConstant_ColdWaterHoldsMoreGas(t *testing.T) {
	for _, salinity := range []float64{0, 23.71, 35} {
		prev := math.Inf(1)
		for temp := 0.0; temp <= 25; temp += 2.5 {
			kh := SolubilityConstant(temp, salinity)
			if kh >= prev {
				t.Errorf("KH(%v, %v) = %g, not decreasing with temperature", temp, salinity, kh)
			}
			prev = kh
		}
	}
}

func TestSolubilityConstant_SaltingOut(t *testing.T) {
	for temp := 0.0; temp <= 25; temp += 5 {
		fresh := SolubilityConstant(temp, 0)
		saline := SolubilityConstant(temp, 35)
		if fresh <= saline {
			t.Errorf("at %v°C: KH fresh = %g <= KH saline = %g, want salting-out", temp, fresh, saline)
		}
	}
}

func TestSaturationConcentration_ReferenceStation(t *testing.T) {
	// Manually verified reference station: T=0.43°C, S=23.71 PSU,
	// atmospheric CH4 1986.65 ppb gives C_sat ≈ 4.23 nM.
	cSat := SaturationConcentration(0.43, 23.71, 1986.65)
	if math.Abs(cSat-4.23) > 0.02 {
		t.Errorf("SaturationConcentration = %.4f nM, want 4.23 ± 0.02", cSat)
	}
}

func TestSaturationConcentration_PPBToNanomolarCancellation(t *testing.T) {
	// ppb→atm (×1e-9) and mol/L→nM (×1e9) cancel: C_sat must equal
	// KH × ppb numerically.
	kh := SolubilityConstant(10, 30)
	cSat := SaturationConcentration(10, 30, 1990)
	if math.Abs(cSat-kh*1990) > 1e-12 {
		t.Errorf("C_sat = %g, want KH*ppb = %g", cSat, kh*1990)
	}
}

func TestInSolubilityCalibration(t *testing.T) {
	tests := []struct {
		temp float64
		want bool
	}{
		{0.43, false},
		{2.0, true},
		{20, true},
		{30, true},
		{30.1, false},
		{-1.8, false},
	}
	for _, tt := range tests {
		if got := InSolubilityCalibration(tt.temp); got != tt.want {
			t.Errorf("InSolubilityCalibration(%v) = %v, want %v", tt.temp, got, tt.want)
		}
	}
}
