package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mstr-Creta/Document-Extractor/internal/document"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file...]",
	Short: "Classify OCR text files and extract their fields",
	Long: `Reads each text file (or stdin when no file or "-" is given), classifies it
and prints the document type with its extracted fields.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"-"}
		}

		parser := document.DefaultParser()
		results := make([]documentResult, 0, len(args))
		for _, name := range args {
			text, err := readText(cmd.InOrStdin(), name)
			if err != nil {
				return err
			}
			docType, fields := parser.Parse(text)
			results = append(results, documentResult{File: name, DocumentType: docType, Fields: fields})
		}
		return writeOutput(cmd.OutOrStdout(), outputFormat, results)
	},
}

func readText(stdin io.Reader, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}
