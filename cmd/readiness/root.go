// ABOUTME: Root Cobra command for readiness CLI.
// ABOUTME: Loads config and the logger in PersistentPreRunE; closes storage afterwards.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/config"
	"github.com/harperreed/readiness/internal/engine"
	"github.com/harperreed/readiness/internal/logging"
	"github.com/harperreed/readiness/internal/storage"
)

var (
	cfg    *config.Config
	logger *log.Logger
	repo   *storage.DB

	logLevelFlag string
	dataDirFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "readiness",
	Short: "Adaptive training-load and readiness engine",
	Long: `Readiness turns daily athlete signals into training decisions.

WHAT IT TRACKS:

  Readiness   hrv, sleep_minutes, soreness, jump_height (plus resting_hr)
  Load        training_load, rolled into a 7:28 day acute:chronic ratio

QUICK START:

  $ readiness metric add hrv 48 -a ath-1          # Log today's HRV
  $ readiness metric add sleep_minutes 450 -a ath-1
  $ readiness score -a ath-1                      # Composite readiness
  $ readiness load -a ath-1                       # ACWR risk band
  $ readiness session add -a ath-1 -e squat:5x5@100
  $ readiness run -a ath-1                        # Score, classify, adjust

OFFLINE SET LOGGING:

  Sets logged on a device are queued durably and uploaded exactly once
  when the server is reachable.

  $ readiness set log <session> squat 100 5   # Capture a set
  $ readiness sync status                     # Queue state
  $ readiness sync watch                      # Upload on reconnect

SURFACES:

  $ readiness serve      # HTTP API and set endpoint
  $ readiness mcp        # MCP server over stdio
  $ readiness schedule   # Daily batch on a cron spec

CONFIGURATION:

  Settings live at ~/.config/readiness/config.json. Run 'readiness config init'
  to create one with a device ID.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dataDirFlag != "" {
			loaded.DataDir = dataDirFlag
		}
		if logLevelFlag != "" {
			loaded.LogLevel = logLevelFlag
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(os.Stderr, cfg.LogLevel)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if repo != nil {
			err := repo.Close()
			repo = nil
			return err
		}
		return nil
	},
}

// openRepo opens the SQLite store once per invocation.
func openRepo() (*storage.DB, error) {
	if repo != nil {
		return repo, nil
	}
	db, err := cfg.OpenStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	repo = db
	return repo, nil
}

// newPipeline builds the engine over the SQLite store.
func newPipeline() (*engine.Pipeline, error) {
	db, err := openRepo()
	if err != nil {
		return nil, err
	}
	return engine.NewPipeline(db, engine.PipelineConfig{
		Weights:     cfg.GetWeights(),
		Strict:      cfg.Strict,
		Concurrency: cfg.GetBatchConcurrency(),
		Logger:      logger,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "override the data directory")
}
