package main

import (
	"github.com/spf13/cobra"
)

var outputFormat string

var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "Classify identity documents and extract their fields",
	Long: `docextract reads OCR text (or images, through the configured OCR provider)
and labels each document as a PAN card, Aadhaar card, passport or general ID,
then extracts the ID number, date of birth and related fields.`,
	Version:      GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}
