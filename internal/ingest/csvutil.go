// Package ingest parses the field campaign's data tables into the
// model types. The source CSVs are European-flavored: semicolon
// separated, comma decimal marks, latin-1 encoded, with unit rows
// wedged between header and data in some files.
package ingest

import (
	"database/sql"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// salinitySentinel marks missing salinity in the chemistry tables. It
// is mapped to null at parse time so it can never flow into a power
// or square-root computation.
const salinitySentinel = -999

func newSemicolonReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// parseFloat handles comma decimal marks; empty cells and unparsable
// text (unit rows) come back null.
func parseFloat(s string) sql.NullFloat64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// normalizeHeader lowercases, strips parenthesized units and collapses
// whitespace, so "Depth (m)", "depth " and "Depth" all match.
func normalizeHeader(h string) string {
	if i := strings.IndexByte(h, '('); i >= 0 {
		h = h[:i]
	}
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

func columnIndex(header []string, names ...string) int {
	for i, h := range header {
		n := normalizeHeader(h)
		for _, name := range names {
			if n == name {
				return i
			}
		}
	}
	return -1
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
