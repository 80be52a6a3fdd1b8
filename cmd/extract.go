package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nahuelc/resumen/export"
	"github.com/nahuelc/resumen/extractor"
	"github.com/nahuelc/resumen/extractor/common"
)

var (
	extractOut  string
	extractType string
)

var extractCmd = &cobra.Command{
	Use:   "extract [input]",
	Short: "Extract statement(s) to CSV",
	Long: `Extracts a statement PDF, or every PDF in a directory, and writes
statements.csv, transactions.csv and warnings.csv to the output directory.
The statement variant is detected from the page text unless --type forces one.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runExtract(args[0])
	},
}

func runExtract(input string) {
	results, err := extractor.ProcessPath(input, extractType, common.Options{Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "error: no statements could be processed")
		os.Exit(1)
	}

	if err := export.WriteCSV(results, extractOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: processed %d statements. CSVs in: %s\n", len(results), extractOut)
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "data/output", "output directory for CSV files")
	extractCmd.Flags().StringVarP(&extractType, "type", "t", "auto", "statement type: auto, mastercard, visa or cuenta")
}
