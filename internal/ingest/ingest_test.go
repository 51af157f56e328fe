package ingest

import (
	"strings"
	"testing"
	"time"
)

const chemistry2023CSV = `Station;dd/mm/yyyy;hh:mm;Depth (m);CH4 (nM);CH4 saturation;Temperature (°C);Salinity (PSU);Latitude;Longitude
GF01;10/07/2023;09:30:00;2,1;7,04;166,5;0,43;23,71;61,20;-45,95
GF01;10/07/2023;09:30:00;55,0;40,2;950,0;1,02;33,40;61,20;-45,95
GF02;11/07/2023;14:00:00;2,4;5,80;140,2;1,85;-999;61,18;-45,90
GF03;12/07/2023;10:15:00;3,0;;;;;61,10;-45,80
`

const chemistry2024CSV = `Station;dd/mm/yyy;hh:mm;depth ;CH4;CH4 saturation;Temperature;Salinity
;;;m;nM;%;°C;PSU
GF21;02/08/2024;08:45:00;1,9;9,12;210,0;2,60;27,80
`

func TestReadChemistry_2023Layout(t *testing.T) {
	samples, err := ReadChemistry(strings.NewReader(chemistry2023CSV), 2023)
	if err != nil {
		t.Fatalf("ReadChemistry: %v", err)
	}
	if len(samples) != 4 {
		t.Fatalf("len(samples) = %d, want 4", len(samples))
	}

	s := samples[0]
	if s.StationID != "GF01" {
		t.Errorf("StationID = %q, want GF01", s.StationID)
	}
	want := time.Date(2023, 7, 10, 9, 30, 0, 0, time.UTC)
	if !s.SampledAt.Equal(want) {
		t.Errorf("SampledAt = %v, want %v", s.SampledAt, want)
	}
	if s.DepthM != 2.1 {
		t.Errorf("DepthM = %v, want 2.1 (comma decimal)", s.DepthM)
	}
	if !s.CH4NM.Valid || s.CH4NM.Float64 != 7.04 {
		t.Errorf("CH4NM = %+v, want 7.04", s.CH4NM)
	}
	if !s.SalinityPSU.Valid || s.SalinityPSU.Float64 != 23.71 {
		t.Errorf("SalinityPSU = %+v, want 23.71", s.SalinityPSU)
	}
	if !s.Latitude.Valid || s.Latitude.Float64 != 61.20 {
		t.Errorf("Latitude = %+v, want 61.20", s.Latitude)
	}
}

func TestReadChemistry_SentinelSalinityBecomesNull(t *testing.T) {
	samples, err := ReadChemistry(strings.NewReader(chemistry2023CSV), 2023)
	if err != nil {
		t.Fatalf("ReadChemistry: %v", err)
	}
	var gf02 bool
	for _, s := range samples {
		if s.StationID == "GF02" {
			gf02 = true
			if s.SalinityPSU.Valid {
				t.Errorf("GF02 salinity = %+v, want null (sentinel -999 must not survive parsing)", s.SalinityPSU)
			}
		}
	}
	if !gf02 {
		t.Fatal("GF02 not parsed")
	}
}

func TestReadChemistry_MissingMeasurementsKeptAsNull(t *testing.T) {
	samples, err := ReadChemistry(strings.NewReader(chemistry2023CSV), 2023)
	if err != nil {
		t.Fatalf("ReadChemistry: %v", err)
	}
	last := samples[len(samples)-1]
	if last.StationID != "GF03" {
		t.Fatalf("last sample %q, want GF03", last.StationID)
	}
	if last.CH4NM.Valid || last.TemperatureC.Valid || last.SalinityPSU.Valid {
		t.Errorf("GF03 empty cells parsed as values: %+v", last)
	}
}

func TestReadChemistry_2024LayoutSkipsUnitRow(t *testing.T) {
	samples, err := ReadChemistry(strings.NewReader(chemistry2024CSV), 2024)
	if err != nil {
		t.Fatalf("ReadChemistry: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("len(samples) = %d, want 1 (unit row skipped)", len(samples))
	}
	s := samples[0]
	if s.StationID != "GF21" || s.DepthM != 1.9 || !s.CH4NM.Valid || s.CH4NM.Float64 != 9.12 {
		t.Errorf("parsed sample = %+v", s)
	}
	if s.SeasonYear != 2024 {
		t.Errorf("SeasonYear = %d, want 2024", s.SeasonYear)
	}
}

const windCSV = `Exported from station logger
Narsaq;;
Timestamps; m/s Wind Speed; °C Temperature
;m/s;°C
06/15/2023 02:30:00 PM;4,2;10,1
07/10/2023 09:00:00 AM;6,5;8,9
12/01/2023 11:00:00 AM;9,9;1,2
07/10/2022 09:00:00 AM;3,3;9,0
`

func TestReadWind(t *testing.T) {
	records, err := ReadWind(strings.NewReader(windCSV), 2023)
	if err != nil {
		t.Fatalf("ReadWind: %v", err)
	}
	// Unit row skipped; December and 2022 rows filtered out.
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	want := time.Date(2023, 6, 15, 14, 30, 0, 0, time.UTC)
	if !records[0].ObservedAt.Equal(want) {
		t.Errorf("ObservedAt = %v, want %v (12-hour clock)", records[0].ObservedAt, want)
	}
	if records[0].WindSpeedMS != 4.2 {
		t.Errorf("WindSpeedMS = %v, want 4.2", records[0].WindSpeedMS)
	}
}

func TestReadWind_HeaderMissing(t *testing.T) {
	bad := "a\nb\nTimestamps;humidity\n"
	if _, err := ReadWind(strings.NewReader(bad), 2023); err == nil {
		t.Error("want error for missing wind speed column")
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{"3,14", 3.14, true},
		{" 7.04 ", 7.04, true},
		{"-999", -999, true},
		{"", 0, false},
		{"m/s", 0, false},
	}
	for _, tt := range tests {
		got := parseFloat(tt.in)
		if got.Valid != tt.valid || (got.Valid && got.Float64 != tt.want) {
			t.Errorf("parseFloat(%q) = %+v, want {%v %v}", tt.in, got, tt.want, tt.valid)
		}
	}
}
