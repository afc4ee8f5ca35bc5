package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV reads a table from CSV with a header row, inferring each cell's
// type with ParseCell.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make([]Series, len(header))
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		for i, cell := range record {
			columns[i] = append(columns[i], ParseCell(cell))
		}
	}

	for i := range columns {
		if columns[i] == nil {
			columns[i] = Series{}
		}
	}
	return FromColumns(header, columns...)
}

// WriteCSV writes the table as CSV with a header row
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	names := t.Names()
	if err := writer.Write(names); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(names))
	for row := 0; row < t.NumRows(); row++ {
		for i, name := range names {
			s, _ := t.Column(name)
			record[i] = ToString(s[row])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", row, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
