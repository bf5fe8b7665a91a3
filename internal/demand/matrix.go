package demand

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Matrix is a per-block demand table: block name, total agents, then one
// column per hour. Header keeps the original column names.
type Matrix struct {
	Header []string
	Rows   []MatrixRow
}

type MatrixRow struct {
	Name  string
	Total float64
	Hours []float64
}

// HourColumns returns the hourly column names.
func (m *Matrix) HourColumns() []string {
	if len(m.Header) < 2 {
		return nil
	}
	return m.Header[2:]
}

// ReadMatrix parses a CSV whose first column is the block name, second the
// total and the remainder hourly weights. Blank numeric cells read as zero.
func ReadMatrix(r io.Reader) (*Matrix, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read matrix: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read matrix: empty input")
	}
	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("read matrix: need name and total columns, got %d", len(header))
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	m := &Matrix{Header: header}
	nHours := len(header) - 2
	for line, rec := range records[1:] {
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := MatrixRow{Name: strings.TrimSpace(rec[0]), Hours: make([]float64, nHours)}
		if len(rec) > 1 {
			if row.Total, err = parseCell(rec[1]); err != nil {
				return nil, fmt.Errorf("read matrix: row %d total: %w", line+2, err)
			}
		}
		for h := 0; h < nHours && h+2 < len(rec); h++ {
			if row.Hours[h], err = parseCell(rec[h+2]); err != nil {
				return nil, fmt.Errorf("read matrix: row %d column %q: %w", line+2, header[h+2], err)
			}
		}
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

// WriteMatrix writes m back in the same layout, counts as integers.
func WriteMatrix(w io.Writer, m *Matrix) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(m.Header); err != nil {
		return err
	}
	for _, row := range m.Rows {
		rec := make([]string, 0, len(row.Hours)+2)
		rec = append(rec, row.Name, formatCount(row.Total))
		for _, v := range row.Hours {
			rec = append(rec, formatCount(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, nil
	}
	return v, nil
}

func formatCount(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
