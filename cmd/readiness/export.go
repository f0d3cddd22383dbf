// ABOUTME: CLI command for exporting an athlete's data.
// ABOUTME: Supports JSON and YAML export formats.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/storage"
)

var (
	exportAthlete string
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export an athlete's data",
	Long: `Export an athlete's metrics, planned sessions and adjustment log.

FORMATS:

  json   Full JSON export (suitable for backup)
  yaml   YAML export (human-readable)

EXAMPLES:

  readiness export json -a ath-1                 # Print JSON
  readiness export yaml -a ath-1 -o ath-1.yaml   # Save to file`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportAthlete == "" {
			return fmt.Errorf("--athlete is required")
		}

		db, err := openRepo()
		if err != nil {
			return err
		}
		ctx := context.Background()

		export, err := db.GetAllData(ctx, exportAthlete)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		var data []byte
		switch format := args[0]; format {
		case "json":
			data, err = storage.ExportJSON(export)
		case "yaml":
			data, err = storage.ExportYAML(export)
		default:
			return fmt.Errorf("unknown format: %s (use json or yaml)", format)
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
		} else {
			fmt.Println(string(data))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportAthlete, "athlete", "a", "", "athlete ID")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}
