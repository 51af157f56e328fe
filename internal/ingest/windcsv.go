package ingest

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/lox/fjordflux/internal/metrics"
	"github.com/lox/fjordflux/internal/models"
)

// Weather station exports open with two preamble lines before the
// header, then a unit row before the data.
const windPreambleLines = 2

// Campaign sampling happens June through September; wind records
// outside those months only dilute the seasonal statistics.
const (
	summerStartMonth = time.June
	summerEndMonth   = time.September
)

// ReadWind parses a weather-station export into the season's wind
// series, keeping only summer records from the season's year. The
// unit row and any other unparsable rows are skipped with warnings.
func ReadWind(r io.Reader, seasonYear int) ([]models.WindRecord, error) {
	cr := newSemicolonReader(r)

	for i := 0; i < windPreambleLines; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("read wind preamble: %w", err)
		}
	}

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read wind header: %w", err)
	}
	tsIdx, speedIdx := -1, -1
	for i, h := range header {
		n := normalizeHeader(h)
		switch {
		case n == "timestamps" || n == "timestamp":
			tsIdx = i
		case strings.Contains(n, "wind speed"):
			speedIdx = i
		}
	}
	if tsIdx < 0 || speedIdx < 0 {
		return nil, fmt.Errorf("wind header missing timestamp or wind speed column: %v", header)
	}

	var records []models.WindRecord
	row := windPreambleLines + 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("wind row %d: %w", row+1, err)
		}
		row++

		observedAt, err := time.ParseInLocation("01/02/2006 03:04:05 PM",
			strings.TrimSpace(field(record, tsIdx)), time.UTC)
		if err != nil {
			log.Printf("ingest: wind row %d: bad timestamp, skipping: %v", row, err)
			continue
		}
		speed := parseFloat(field(record, speedIdx))
		if !speed.Valid || speed.Float64 < 0 {
			log.Printf("ingest: wind row %d: no usable wind speed, skipping", row)
			continue
		}

		if observedAt.Year() != seasonYear {
			continue
		}
		if m := observedAt.Month(); m < summerStartMonth || m > summerEndMonth {
			continue
		}

		records = append(records, models.WindRecord{
			SeasonYear:  seasonYear,
			ObservedAt:  observedAt,
			WindSpeedMS: speed.Float64,
		})
		metrics.WindRecordsIngested.WithLabelValues(fmt.Sprint(seasonYear)).Inc()
	}
	return records, nil
}
