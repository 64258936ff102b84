package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	libconfig "ieoms/backend/libs/config"
	"ieoms/backend/libs/logging"
	"ieoms/backend/services/energy-service/internal/app"
	"ieoms/backend/services/energy-service/internal/config"
	"ieoms/backend/services/energy-service/internal/events"
)

var (
	cfgFile     string
	householdID int64
)

var rootCmd = &cobra.Command{
	Use:   "energyctl",
	Short: "Operate the household energy pipeline",
	Long: `energyctl ingests consumption CSV files and prints reports straight from the
energy database, using the same configuration as the energy service.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_FILE)")
	rootCmd.PersistentFlags().Int64Var(&householdID, "household", 0, "household id")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openCore loads configuration and opens the pipeline.
func openCore() (*app.Core, *zap.Logger, error) {
	if cfgFile != "" {
		if err := os.Setenv("CONFIG_FILE", cfgFile); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.NewLogger("energyctl")
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	core, err := app.NewCore(cfg, events.Nop{}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening pipeline: %w", err)
	}
	return core, logger, nil
}

func requireHousehold() error {
	if householdID <= 0 {
		return fmt.Errorf("--household must be a positive id")
	}
	return nil
}

// loadConfigInto reads file and env values without the database checks.
func loadConfigInto(cfg *config.Config) error {
	if err := libconfig.LoadConfig(cfg); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return nil
}
