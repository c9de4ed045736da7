package main

import (
	"fmt"
	"os"

	"counseling-records/config"
	"counseling-records/database"
	"counseling-records/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "counseling-records",
		Short:         "Counseling record web form backed by PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the web server (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the counseling_records table",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate()
			},
		},
	)
	return root
}

// setup loads configuration and builds the logger it asks for.
func setup() (*config.Config, *zap.Logger, error) {
	// bootstrap logger so configuration loading is logged too
	bootstrap, err := logging.New("info")
	if err != nil {
		return nil, nil, err
	}
	cfg := config.Load()
	_ = bootstrap.Sync()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("📋 Configuration loaded", zap.String("port", cfg.ServerPort))
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("🚀 Starting counseling records server...")
	return serve(cmd.Context(), cfg, logger)
}

func runMigrate() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := database.InitDB(cfg, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("error getting sql.DB: %w", err)
	}
	defer sqlDB.Close()

	return database.Migrate(db, logger)
}
