package exporter

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"ledgerport/internal/ledger"
)

const sheetName = "Report"

// serializeXLSX writes a header row plus one row per entry to a single sheet
// named "Report". Numeric source values are written as typed cells so
// spreadsheet software sees real numbers; everything else is text.
func serializeXLSX(entries []*ledger.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if len(entries) > 0 {
		header := entries[0].Columns()
		for i, col := range header {
			cell, err := excelize.CoordinatesToCellName(i+1, 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, col); err != nil {
				return nil, fmt.Errorf("write header cell: %w", err)
			}
		}
		for rowIdx, entry := range entries {
			for i, col := range header {
				cell, err := excelize.CoordinatesToCellName(i+1, rowIdx+2)
				if err != nil {
					return nil, err
				}
				v, _ := entry.Get(col)
				if err := f.SetCellValue(sheetName, cell, cellValue(v)); err != nil {
					return nil, fmt.Errorf("write cell %s: %w", cell, err)
				}
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		f, _ := t.Float64()
		return f
	case string, bool, int, int64, float64:
		return t
	default:
		return ledger.FormatValue(v)
	}
}
