package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ieoms/backend/services/energy-service/internal/models"
)

var (
	costDays     int
	forecastDays int
	reportHours  int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print household reports",
}

var reportCostCmd = &cobra.Command{
	Use:   "cost",
	Short: "Per-appliance cost breakdown",
	RunE:  runReportCost,
}

var reportPeaksCmd = &cobra.Command{
	Use:   "peaks",
	Short: "Hour-of-day distribution per usage label",
	RunE:  runReportPeaks,
}

var reportForecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Daily totals of the stored forecast set",
	RunE:  runReportForecast,
}

var reportConsumptionCmd = &cobra.Command{
	Use:   "consumption",
	Short: "Hourly consumption for the trailing window",
	RunE:  runReportConsumption,
}

func init() {
	reportCostCmd.Flags().IntVar(&costDays, "days", 30, "trailing window in days")
	reportForecastCmd.Flags().IntVar(&forecastDays, "days", 7, "forecast days to show")
	reportConsumptionCmd.Flags().IntVar(&reportHours, "hours", 24, "trailing window in hours")
	reportCmd.AddCommand(reportCostCmd, reportPeaksCmd, reportForecastCmd, reportConsumptionCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportCost(cmd *cobra.Command, args []string) error {
	if err := requireHousehold(); err != nil {
		return err
	}
	core, logger, err := openCore()
	if err != nil {
		return err
	}
	defer core.Close()
	defer logger.Sync()

	report, err := core.Reports.CostBreakdown(cmd.Context(), householdID, costDays)
	if err != nil {
		return err
	}
	if len(report.Appliances) == 0 {
		fmt.Printf("No consumption found for household %d\n", householdID)
		return nil
	}

	fmt.Printf("\nCost breakdown, last %d days:\n", report.PeriodDays)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("%-16s %10s %10s %8s %8s\n", "Appliance", "kWh", "Cost", "Share", "Count")
	fmt.Println("------------------------------------------------------------")
	for _, item := range report.Appliances {
		fmt.Printf("%-16s %10.2f %10.2f %7.1f%% %8d\n", item.ApplianceType, item.TotalKWh, item.TotalCost, item.Percentage, item.UsageCount)
	}
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Total: %.2f kWh, $%.2f\n", report.TotalKWh, report.TotalCost)
	return nil
}

func runReportPeaks(cmd *cobra.Command, args []string) error {
	if err := requireHousehold(); err != nil {
		return err
	}
	core, logger, err := openCore()
	if err != nil {
		return err
	}
	defer core.Close()
	defer logger.Sync()

	peaks, err := core.Reports.PeakHours(cmd.Context(), householdID)
	if err != nil {
		return err
	}
	buckets := []struct {
		label  models.UsageLabel
		bucket models.PeakBucket
	}{
		{models.UsagePeak, peaks.Peak},
		{models.UsageNormal, peaks.Normal},
		{models.UsageOffPeak, peaks.OffPeak},
	}
	for _, b := range buckets {
		window := b.bucket.TypicalWindow
		if window == "" {
			window = "-"
		}
		fmt.Printf("%-9s window %-30s avg %.2f kWh (%d hours)\n", b.label, window, b.bucket.AvgEnergyKWh, len(b.bucket.Hours))
	}
	return nil
}

func runReportForecast(cmd *cobra.Command, args []string) error {
	if err := requireHousehold(); err != nil {
		return err
	}
	core, logger, err := openCore()
	if err != nil {
		return err
	}
	defer core.Close()
	defer logger.Sync()

	summary, err := core.Reports.ForecastSummary(cmd.Context(), householdID, forecastDays)
	if err != nil {
		return err
	}
	if len(summary.Daily) == 0 {
		fmt.Printf("No forecasts found for household %d\n", householdID)
		return nil
	}
	fmt.Printf("\nForecast (%s):\n", summary.ModelVersion)
	fmt.Println("----------------------------------------")
	fmt.Printf("%-12s  %10s  %5s\n", "Date", "kWh", "Hours")
	fmt.Println("----------------------------------------")
	for _, day := range summary.Daily {
		fmt.Printf("%-12s  %10.2f  %5d\n", day.Date, day.PredictedKWh, day.Hours)
	}
	fmt.Println("----------------------------------------")
	fmt.Printf("Total: %.2f kWh, confidence %.2f\n", summary.TotalPredictedKWh, summary.AvgConfidence)
	return nil
}

func runReportConsumption(cmd *cobra.Command, args []string) error {
	if err := requireHousehold(); err != nil {
		return err
	}
	core, logger, err := openCore()
	if err != nil {
		return err
	}
	defer core.Close()
	defer logger.Sync()

	series, err := core.Reports.ConsumptionSeries(cmd.Context(), householdID, reportHours)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		fmt.Printf("No consumption found for household %d\n", householdID)
		return nil
	}
	fmt.Printf("%-17s  %-16s  %-9s  %8s  %8s\n", "Hour", "Appliance", "Label", "kWh", "Cost")
	for _, row := range series {
		fmt.Printf("%-17s  %-16s  %-9s  %8.3f  %8.3f\n", row.Hour.Format("2006-01-02 15:04"), row.ApplianceType, row.UsageLabel, row.AvgEnergyKWh, row.AvgCostUSD)
	}
	return nil
}
