// table.go - Records table layout shared by the API and the XLSX export

package export

import (
	"github.com/Mstr-Creta/Document-Extractor/internal/document"
)

var leadingColumns = []string{
	document.ColumnFileName,
	document.ColumnDocumentType,
	document.FieldIDNumber,
	document.FieldDOB,
}

// Columns lays out the records table: file name, document type, ID number and
// DOB first, every other field in the order it was first seen, Timestamp last.
// Columns no record carries are left out.
func Columns(records []document.Record) []string {
	if len(records) == 0 {
		return nil
	}

	present := map[string]bool{
		document.ColumnFileName:     true,
		document.ColumnDocumentType: true,
		document.ColumnTimestamp:    true,
	}
	var extra []string
	for _, rec := range records {
		for _, key := range rec.Fields.Keys() {
			if present[key] {
				continue
			}
			present[key] = true
			if key != document.FieldIDNumber && key != document.FieldDOB {
				extra = append(extra, key)
			}
		}
	}

	columns := make([]string, 0, len(leadingColumns)+len(extra)+1)
	for _, c := range leadingColumns {
		if present[c] {
			columns = append(columns, c)
		}
	}
	columns = append(columns, extra...)
	return append(columns, document.ColumnTimestamp)
}

// Rows renders each record as cell text in column order. Missing and absent
// values are empty cells.
func Rows(records []document.Record, columns []string) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i], _ = rec.Cell(column)
		}
		rows = append(rows, row)
	}
	return rows
}
