package telemetry

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// CSVWriter streams TickStats rows, writing the header once.
type CSVWriter struct {
	w             io.Writer
	headerWritten bool
	rows          int
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

// Write appends one row.
func (c *CSVWriter) Write(s TickStats) error {
	records := []TickStats{s}
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		c.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, c.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}
	c.rows++
	return nil
}

func (c *CSVWriter) Rows() int { return c.rows }

// WriteAll writes rows with a header.
func WriteAll(w io.Writer, rows []TickStats) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// ReadAll parses a telemetry CSV.
func ReadAll(r io.Reader) ([]TickStats, error) {
	var rows []TickStats
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("reading telemetry: %w", err)
	}
	return rows, nil
}
