// record.go - Caller-level record combining a classification with upload metadata

package document

import (
	"time"

	"github.com/google/uuid"
)

// Table column names for the metadata parts of a record
const (
	ColumnFileName     = "File Name"
	ColumnDocumentType = "Document Type"
	ColumnTimestamp    = "Timestamp"
)

// TimestampLayout is the wall-clock format shown in the records table.
const TimestampLayout = "15:04:05"

// Record is one processed upload. The parser never keeps a reference to it.
type Record struct {
	ID           string       `json:"id"`
	SessionID    string       `json:"session_id"`
	FileName     string       `json:"file_name"`
	Timestamp    string       `json:"timestamp"`
	CreatedAt    time.Time    `json:"created_at"`
	DocumentType DocumentType `json:"document_type"`
	Fields       FieldMap     `json:"fields"`
}

// NewRecord merges a parse result with the caller's metadata.
func NewRecord(sessionID, fileName string, now time.Time, docType DocumentType, fields FieldMap) Record {
	return Record{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		FileName:     fileName,
		Timestamp:    now.Format(TimestampLayout),
		CreatedAt:    now,
		DocumentType: docType,
		Fields:       fields.Clone(),
	}
}

// Cell returns the display text of a table column and whether the record has it.
func (r Record) Cell(column string) (string, bool) {
	switch column {
	case ColumnFileName:
		return r.FileName, true
	case ColumnDocumentType:
		return r.DocumentType.String(), true
	case ColumnTimestamp:
		return r.Timestamp, true
	}
	v, ok := r.Fields.Get(column)
	if !ok {
		return "", false
	}
	return v.String(), true
}
