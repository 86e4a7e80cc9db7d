// Package exporter serializes ordered ledger entries into one of the
// supported file formats. Serialization is pure and deterministic: the same
// entry list always produces the same bytes (XLSX excepted, since the
// container embeds workbook timestamps).
package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"ledgerport/internal/ledger"
)

// Format is a supported output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
	FormatXML  Format = "xml"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for format values outside the closed set.
// It is fatal for the report being generated and is never retried.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat validates a request-supplied format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatTXT, FormatXML, FormatXLSX, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type served for downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatTXT:
		return "text/plain"
	case FormatXML:
		return "application/xml"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Serialize encodes entries into the requested format. The separator only
// applies to CSV; pass 0 for the default comma. An empty entry list yields a
// minimal payload, never an error: emptiness is a business outcome classified
// by the orchestrator, not a serialization failure.
func Serialize(entries []*ledger.Entry, format Format, separator rune) ([]byte, error) {
	switch format {
	case FormatCSV:
		return serializeCSV(entries, separator)
	case FormatTXT:
		return serializeTXT(entries)
	case FormatXML:
		return serializeXML(entries)
	case FormatXLSX:
		return serializeXLSX(entries)
	case FormatJSON:
		return serializeJSON(entries)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// serializeCSV writes a header row taken from the first entry's columns, then
// one row per entry. encoding/csv applies the required quoting: fields
// containing the separator or a quote are quoted, with embedded quotes
// doubled. Entries missing a header column render as the empty string.
func serializeCSV(entries []*ledger.Entry, separator rune) ([]byte, error) {
	if len(entries) == 0 {
		return []byte{}, nil
	}
	if separator == 0 {
		separator = ','
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = separator

	header := entries[0].Columns()
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(header))
	for _, entry := range entries {
		for i, col := range header {
			v, _ := entry.Get(col)
			row[i] = ledger.FormatValue(v)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// serializeTXT mirrors the CSV structure with a fixed tab separator and no
// quoting of any kind.
func serializeTXT(entries []*ledger.Entry) ([]byte, error) {
	if len(entries) == 0 {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	header := entries[0].Columns()
	buf.WriteString(strings.Join(header, "\t"))
	buf.WriteByte('\n')
	row := make([]string, len(header))
	for _, entry := range entries {
		for i, col := range header {
			v, _ := entry.Get(col)
			row[i] = ledger.FormatValue(v)
		}
		buf.WriteString(strings.Join(row, "\t"))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// serializeXML wraps entries under Report/entries, one entry element per
// ledger line with a child element per column, two-space indented.
func serializeXML(entries []*ledger.Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	report := xml.StartElement{Name: xml.Name{Local: "Report"}}
	entriesEl := xml.StartElement{Name: xml.Name{Local: "entries"}}
	if err := enc.EncodeToken(report); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(entriesEl); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		entryEl := xml.StartElement{Name: xml.Name{Local: "entry"}}
		if err := enc.EncodeToken(entryEl); err != nil {
			return nil, err
		}
		for _, col := range entry.Columns() {
			v, _ := entry.Get(col)
			el := xml.StartElement{Name: xml.Name{Local: col}}
			if err := enc.EncodeElement(ledger.FormatValue(v), el); err != nil {
				return nil, fmt.Errorf("encode column %s: %w", col, err)
			}
		}
		if err := enc.EncodeToken(entryEl.End()); err != nil {
			return nil, err
		}
	}
	if err := enc.EncodeToken(entriesEl.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(report.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("flush xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// serializeJSON renders a pretty-printed array of objects preserving each
// entry's column insertion order.
func serializeJSON(entries []*ledger.Entry) ([]byte, error) {
	if len(entries) == 0 {
		return []byte("[]"), nil
	}
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal entries: %w", err)
	}
	return out, nil
}
