package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored readings and forecasts for a household",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := requireHousehold(); err != nil {
		return err
	}
	core, logger, err := openCore()
	if err != nil {
		return err
	}
	defer core.Close()
	defer logger.Sync()

	ctx := cmd.Context()
	readings, err := core.Store.CountConsumption(ctx, householdID)
	if err != nil {
		return fmt.Errorf("counting readings: %w", err)
	}
	forecasts, err := core.Store.CountForecasts(ctx, householdID)
	if err != nil {
		return fmt.Errorf("counting forecasts: %w", err)
	}
	latest, ok, err := core.Store.MaxTimestamp(ctx, householdID)
	if err != nil {
		return fmt.Errorf("reading latest timestamp: %w", err)
	}

	fmt.Printf("Household %d\n", householdID)
	fmt.Println("----------------------------------------")
	fmt.Printf("%-20s %s\n", "Readings", humanize.Comma(readings))
	fmt.Printf("%-20s %s\n", "Forecasts", humanize.Comma(forecasts))
	if ok {
		fmt.Printf("%-20s %s\n", "Latest reading", latest.Format("2006-01-02 15:04"))
	} else {
		fmt.Printf("%-20s %s\n", "Latest reading", "none")
	}
	return nil
}
