package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Grid is a timetable laid out as rows of labelled cells. The first
// column holds the slot label, remaining columns one cell per day.
type Grid struct {
	Title   string
	Columns []string
	Rows    []GridRow
}

// GridRow is one time band across all days.
type GridRow struct {
	Label string
	Cells []string
}

// CSVExporter renders a Grid into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the grid.
func (e *CSVExporter) Render(grid Grid) ([]byte, error) {
	if len(grid.Columns) == 0 {
		return nil, fmt.Errorf("csv grid requires at least one column")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	header := append([]string{""}, grid.Columns...)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range grid.Rows {
		record := make([]string, 0, len(grid.Columns)+1)
		record = append(record, row.Label)
		for i := 0; i < len(grid.Columns); i++ {
			if i < len(row.Cells) {
				record = append(record, row.Cells[i])
			} else {
				record = append(record, "")
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
