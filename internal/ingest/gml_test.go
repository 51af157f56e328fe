package ingest

import (
	"math"
	"strings"
	"testing"
	"time"
)

const gmlMonthlyFixture = `# header_lines : 5
# site_code : ICE
# dataset_project : surface-flask
# value units : ppb (nmol per mol)
# site year month value
ICE 2023  5  1992.10
ICE 2023  6  1984.20
ICE 2023  7  1982.90
ICE 2023  8  1986.50
ICE 2023 10  1999.00
ICE 2024  6  1995.85
`

func TestParseMonthlyMeans(t *testing.T) {
	means, err := parseMonthlyMeans(strings.NewReader(gmlMonthlyFixture))
	if err != nil {
		t.Fatalf("parseMonthlyMeans: %v", err)
	}
	if len(means) != 6 {
		t.Fatalf("len(means) = %d, want 6", len(means))
	}
	first := means[0]
	if first.Year != 2023 || first.Month != time.May || first.PPB != 1992.10 {
		t.Errorf("first mean = %+v", first)
	}
}

func TestParseMonthlyMeans_Empty(t *testing.T) {
	if _, err := parseMonthlyMeans(strings.NewReader("# only comments\n")); err == nil {
		t.Error("want error for record with no data rows")
	}
}

func TestSeasonalMeanArithmetic(t *testing.T) {
	// The seasonal reference is the June-September average; May and
	// October must not contribute.
	means, err := parseMonthlyMeans(strings.NewReader(gmlMonthlyFixture))
	if err != nil {
		t.Fatalf("parseMonthlyMeans: %v", err)
	}
	var sum float64
	n := 0
	for _, m := range means {
		if m.Year == 2023 && m.Month >= summerStartMonth && m.Month <= summerEndMonth {
			sum += m.PPB
			n++
		}
	}
	if n != 3 {
		t.Fatalf("summer months matched = %d, want 3", n)
	}
	want := (1984.20 + 1982.90 + 1986.50) / 3
	if math.Abs(sum/float64(n)-want) > 1e-9 {
		t.Errorf("seasonal mean = %v, want %v", sum/float64(n), want)
	}
}
