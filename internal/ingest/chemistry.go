package ingest

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/lox/fjordflux/internal/metrics"
	"github.com/lox/fjordflux/internal/models"
)

// The two campaign years name their columns differently ("Depth (m)"
// vs "depth ", "dd/mm/yyyy" vs "dd/mm/yyy"); header matching absorbs
// both layouts into one sample shape.
type chemistryColumns struct {
	station, date, clock            int
	depth, ch4, ch4Sat, temp, salin int
	lat, lon                        int
}

func resolveChemistryColumns(header []string) (chemistryColumns, error) {
	cols := chemistryColumns{
		station: columnIndex(header, "station"),
		date:    columnIndex(header, "dd/mm/yyyy", "dd/mm/yyy"),
		clock:   columnIndex(header, "hh:mm"),
		depth:   columnIndex(header, "depth"),
		ch4:     columnIndex(header, "ch4"),
		ch4Sat:  columnIndex(header, "ch4 saturation"),
		temp:    columnIndex(header, "temperature"),
		salin:   columnIndex(header, "salinity"),
		lat:     columnIndex(header, "latitude", "lat"),
		lon:     columnIndex(header, "longitude", "long", "lon"),
	}
	if cols.station < 0 || cols.date < 0 || cols.clock < 0 || cols.depth < 0 || cols.ch4 < 0 {
		return cols, fmt.Errorf("chemistry header missing required columns: %v", header)
	}
	return cols, nil
}

// ReadChemistry parses a season's water-chemistry table. Rows that
// cannot yield a station id, timestamp and depth are skipped with a
// row-numbered warning (the 2024 file opens with a unit row); rows
// with missing measurements are kept with null fields for QC to rule
// on later.
func ReadChemistry(r io.Reader, seasonYear int) ([]models.StationSample, error) {
	cr := newSemicolonReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read chemistry header: %w", err)
	}
	cols, err := resolveChemistryColumns(header)
	if err != nil {
		return nil, err
	}

	var samples []models.StationSample
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chemistry row %d: %w", row+1, err)
		}
		row++

		stationID := strings.TrimSpace(field(record, cols.station))
		if stationID == "" {
			log.Printf("ingest: chemistry row %d: no station id, skipping", row)
			continue
		}

		sampledAt, err := time.ParseInLocation("02/01/2006 15:04:05",
			strings.TrimSpace(field(record, cols.date))+" "+strings.TrimSpace(field(record, cols.clock)), time.UTC)
		if err != nil {
			log.Printf("ingest: chemistry row %d (%s): bad timestamp, skipping: %v", row, stationID, err)
			continue
		}

		depth := parseFloat(field(record, cols.depth))
		if !depth.Valid {
			log.Printf("ingest: chemistry row %d (%s): no depth, skipping", row, stationID)
			continue
		}

		sample := models.StationSample{
			SeasonYear:       seasonYear,
			StationID:        stationID,
			SampledAt:        sampledAt,
			DepthM:           depth.Float64,
			CH4NM:            parseFloat(field(record, cols.ch4)),
			CH4SaturationPct: parseFloat(field(record, cols.ch4Sat)),
			TemperatureC:     parseFloat(field(record, cols.temp)),
			SalinityPSU:      parseFloat(field(record, cols.salin)),
			Latitude:         parseFloat(field(record, cols.lat)),
			Longitude:        parseFloat(field(record, cols.lon)),
		}
		if sample.SalinityPSU.Valid && sample.SalinityPSU.Float64 == salinitySentinel {
			sample.SalinityPSU = sql.NullFloat64{}
		}
		samples = append(samples, sample)
		metrics.SamplesIngested.WithLabelValues(fmt.Sprint(seasonYear)).Inc()
	}
	return samples, nil
}
