package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Mstr-Creta/Document-Extractor/internal/document"
)

// documentResult is one parsed input as printed by parse and scan.
type documentResult struct {
	File         string                `json:"file" yaml:"file"`
	DocumentType document.DocumentType `json:"document_type" yaml:"document_type"`
	Fields       document.FieldMap     `json:"fields" yaml:"fields"`
}

// writeOutput writes data to w in the requested format.
func writeOutput(w io.Writer, format string, data any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
