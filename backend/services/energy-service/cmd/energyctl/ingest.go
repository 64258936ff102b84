package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var ingestFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a consumption CSV for a household",
	Long: `Validates, labels and stores every row of the CSV in one transaction and
regenerates the household's forecast set.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "CSV file to ingest")
	_ = ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireHousehold(); err != nil {
		return err
	}
	f, err := os.Open(ingestFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", ingestFile, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("reading %s: %w", ingestFile, err)
	}

	core, logger, err := openCore()
	if err != nil {
		return err
	}
	defer core.Close()
	defer logger.Sync()

	result, err := core.Ingestion.IngestUpload(cmd.Context(), householdID, f)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", ingestFile, err)
	}

	fmt.Printf("Ingested %s (%s)\n", ingestFile, humanize.Bytes(uint64(info.Size())))
	fmt.Println("----------------------------------------")
	fmt.Printf("%-20s %s\n", "Batch", result.BatchID)
	fmt.Printf("%-20s %d\n", "Rows inserted", result.RowsInserted)
	fmt.Printf("%-20s %d\n", "Forecasts", result.ForecastsGenerated)
	fmt.Printf("%-20s %s .. %s\n", "Date range", result.DateRange.From.Format("2006-01-02 15:04"), result.DateRange.To.Format("2006-01-02 15:04"))
	fmt.Printf("%-20s %s\n", "Next forecast date", result.NextForecastDate)
	fmt.Printf("%-20s %s\n", "Model", result.ModelVersion)
	return nil
}
