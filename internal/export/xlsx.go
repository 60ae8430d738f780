// xlsx.go - Excel export of session records

package export

import (
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"

	"github.com/Mstr-Creta/Document-Extractor/internal/document"
)

// SheetName is the worksheet holding the exported records
const SheetName = "Records"

// RecordsXLSX returns an XLSX workbook (as bytes) with a header row and one row per record
func RecordsXLSX(records []document.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet instead of leaving an empty "Sheet1" behind
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	columns := Columns(records)
	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}

	for r, row := range Rows(records, columns) {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			// Stored as text so IDs and dates keep their printed form
			if err := f.SetCellStr(SheetName, cell, value); err != nil {
				return nil, fmt.Errorf("xlsx row %d: %w", r+1, err)
			}
		}
	}

	if len(columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(columns))
		_ = f.SetColWidth(SheetName, "A", last, 20)
		if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
			_ = f.SetCellStyle(SheetName, "A1", last+"1", style)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	log.Printf("📊 Exported %d record(s) to XLSX (%d bytes)", len(records), buf.Len())
	return buf.Bytes(), nil
}
