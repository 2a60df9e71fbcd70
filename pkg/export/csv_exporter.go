package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Table defines one tabular block of export content.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Section pairs a table with its heading inside a multi-part document.
type Section struct {
	Title string
	Table Table
}

// Document is a titled sequence of sections rendered into a single file.
type Document struct {
	Title    string
	Sections []Section
}

// CSVExporter renders documents into CSV bytes, one section after another.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the document. Each section is
// emitted as a title row, a header row and its data rows, separated from the
// next section by an empty record.
func (e *CSVExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("csv requires at least one section")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	for i, section := range doc.Sections {
		if len(section.Table.Headers) == 0 {
			return nil, fmt.Errorf("csv section %q requires at least one header", section.Title)
		}
		if i > 0 {
			if err := writer.Write([]string{""}); err != nil {
				return nil, fmt.Errorf("write csv separator: %w", err)
			}
		}
		if section.Title != "" {
			if err := writer.Write([]string{section.Title}); err != nil {
				return nil, fmt.Errorf("write csv section title: %w", err)
			}
		}
		if err := writer.Write(section.Table.Headers); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
		for _, row := range section.Table.Rows {
			record := make([]string, len(section.Table.Headers))
			for j, header := range section.Table.Headers {
				record[j] = row[header]
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
