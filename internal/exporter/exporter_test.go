package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"ledgerport/internal/ledger"
)

func sampleEntries() []*ledger.Entry {
	return []*ledger.Entry{
		ledger.New().
			Set("reference", "#1001").
			Set("date", "2024-03-15").
			Set("customer", `Diop; "Awa"`).
			Set("total", decimal.RequireFromString("1180")),
		ledger.New().
			Set("reference", "#1002").
			Set("date", "2024-03-16").
			Set("customer", "Mensah Kofi").
			Set("total", decimal.RequireFromString("200.5")),
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"csv", "TXT", " xml ", "xlsx", "json"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseFormat(pdf) = %v, want ErrUnsupportedFormat", err)
	}
}

func TestSerializeRejectsUnknownFormat(t *testing.T) {
	if _, err := Serialize(sampleEntries(), Format("pdf"), 0); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestCSVRoundTripWithSemicolonSeparator(t *testing.T) {
	out, err := Serialize(sampleEntries(), FormatCSV, ';')
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	r := csv.NewReader(bytes.NewReader(out))
	r.Comma = ';'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	wantHeader := []string{"reference", "date", "customer", "total"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}
	// Quoting must survive the round trip intact.
	if rows[1][2] != `Diop; "Awa"` {
		t.Errorf("customer = %q", rows[1][2])
	}
	if rows[1][3] != "1180.00" {
		t.Errorf("total = %q, want two fraction digits", rows[1][3])
	}
}

func TestTXTUsesTabsWithoutQuoting(t *testing.T) {
	out, err := Serialize(sampleEntries(), FormatTXT, 0)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "reference\tdate\tcustomer\ttotal" {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Contains(string(out), `"Mensah`) {
		t.Errorf("txt output must not quote fields")
	}
}

func TestXMLStructure(t *testing.T) {
	out, err := Serialize(sampleEntries(), FormatXML, 0)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	s := string(out)
	for _, want := range []string{"<Report>", "<entries>", "<entry>", "<reference>#1001</reference>", "<total>200.50</total>"} {
		if !strings.Contains(s, want) {
			t.Errorf("xml output missing %q:\n%s", want, s)
		}
	}
}

func TestJSONPreservesColumnOrder(t *testing.T) {
	out, err := Serialize(sampleEntries(), FormatJSON, 0)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(decoded))
	}
	refIdx := strings.Index(string(out), `"reference"`)
	totalIdx := strings.Index(string(out), `"total"`)
	if refIdx < 0 || totalIdx < 0 || refIdx > totalIdx {
		t.Errorf("keys not in insertion order")
	}
}

func TestTextualFormatsAreDeterministic(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatTXT, FormatXML, FormatJSON} {
		first, err := Serialize(sampleEntries(), format, 0)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		second, err := Serialize(sampleEntries(), format, 0)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !bytes.Equal(first, second) {
			t.Errorf("%s output differs between identical runs", format)
		}
	}
}

func TestEmptyEntriesProduceMinimalPayloads(t *testing.T) {
	for format, want := range map[Format]string{
		FormatCSV:  "",
		FormatTXT:  "",
		FormatJSON: "[]",
	} {
		out, err := Serialize(nil, format, 0)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if string(out) != want {
			t.Errorf("%s = %q, want %q", format, out, want)
		}
	}
	out, err := Serialize(nil, FormatXML, 0)
	if err != nil {
		t.Fatalf("xml: %v", err)
	}
	if !strings.Contains(string(out), "<Report>") {
		t.Errorf("empty xml missing Report element: %q", out)
	}
	if _, err := Serialize(nil, FormatXLSX, 0); err != nil {
		t.Fatalf("xlsx: %v", err)
	}
}

func TestXLSXCarriesTypedCells(t *testing.T) {
	out, err := Serialize(sampleEntries(), FormatXLSX, 0)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if f.GetSheetName(0) != "Report" {
		t.Fatalf("sheet name = %q", f.GetSheetName(0))
	}
	header, err := f.GetCellValue("Report", "A1")
	if err != nil || header != "reference" {
		t.Errorf("A1 = %q err=%v", header, err)
	}
	total, err := f.GetCellValue("Report", "D2")
	if err != nil {
		t.Fatalf("D2: %v", err)
	}
	if total != "1180" {
		t.Errorf("D2 = %q, want numeric 1180", total)
	}
}
