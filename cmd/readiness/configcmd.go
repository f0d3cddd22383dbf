// ABOUTME: CLI commands for inspecting and initializing the config file.
// ABOUTME: init writes a config with a fresh device ID; show prints effective settings.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the readiness config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file with a device ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		onDisk, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		created := onDisk.EnsureDeviceID()
		if err := onDisk.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		if created {
			color.Green("✓ Created device ID %s", onDisk.DeviceID)
		} else {
			color.Green("✓ Config already has device ID %s", onDisk.DeviceID)
		}
		fmt.Printf("  %s\n", config.GetConfigPath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		effective := map[string]interface{}{
			"config_path":        config.GetConfigPath(),
			"data_dir":           cfg.GetDataDir(),
			"queue_backend":      cfg.GetQueueBackend(),
			"server_url":         cfg.GetServerURL(),
			"listen_addr":        cfg.GetListenAddr(),
			"device_id":          cfg.DeviceID,
			"probe_interval":     cfg.GetProbeInterval().String(),
			"upload_concurrency": cfg.GetUploadConcurrency(),
			"batch_concurrency":  cfg.GetBatchConcurrency(),
			"schedule":           cfg.GetSchedule(),
			"log_level":          cfg.LogLevel,
			"strict":             cfg.Strict,
			"weights":            cfg.GetWeights(),
			"oauth":              cfg.OAuth != nil,
		}

		data, err := json.MarshalIndent(effective, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.GetConfigPath())
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
