package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mstr-Creta/Document-Extractor/configs"
	"github.com/Mstr-Creta/Document-Extractor/internal/common"
	"github.com/Mstr-Creta/Document-Extractor/internal/document"
	"github.com/Mstr-Creta/Document-Extractor/internal/export"
	"github.com/Mstr-Creta/Document-Extractor/internal/ocr"
	"github.com/Mstr-Creta/Document-Extractor/internal/processor"
)

// cliSession groups the records of one scan run
const cliSession = "cli"

var xlsxPath string

var scanCmd = &cobra.Command{
	Use:   "scan image...",
	Short: "OCR document images and extract their fields",
	Long: `Sends each image to the OCR provider selected by OCR_PROVIDER, classifies
the recognized text and prints the results. With --xlsx the records table is
also written to an Excel workbook.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configs.LoadConfig()
		if err := configs.Validate(); err != nil {
			return err
		}

		for _, path := range args {
			if err := processor.ValidateImageExtension(path); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}

		ctx := cmd.Context()
		provider, err := ocr.NewProvider(ctx, ocr.ConfigFromEnv())
		if err != nil {
			return err
		}
		defer ocr.Close(provider)

		parser := document.DefaultParser()
		results := make([]documentResult, 0, len(args))
		records := make([]document.Record, 0, len(args))
		for _, path := range args {
			reqCtx := common.NewRequestContext(cliSession, filepath.Base(path))

			reqCtx.StartStep(common.StepOCR)
			result, usage, err := provider.ExtractText(ctx, path, reqCtx)
			if err != nil {
				reqCtx.EndStep(common.StatusFailed, nil, err)
				return fmt.Errorf("%s: %w", path, err)
			}
			reqCtx.EndStep(common.StatusSuccess, usage, nil)

			docType, fields := parser.Parse(result.Text)
			records = append(records, document.NewRecord(cliSession, filepath.Base(path), time.Now(), docType, fields))
			results = append(results, documentResult{File: path, DocumentType: docType, Fields: fields})
			reqCtx.GetSummary() // logs the per-image timing line
		}

		if xlsxPath != "" {
			data, err := export.RecordsXLSX(records)
			if err != nil {
				return err
			}
			if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", xlsxPath, err)
			}
		}

		return writeOutput(cmd.OutOrStdout(), outputFormat, results)
	},
}

func init() {
	scanCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the records table to this .xlsx file")
}
