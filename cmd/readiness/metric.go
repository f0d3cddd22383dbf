// ABOUTME: CLI commands for recording and listing athlete metrics.
// ABOUTME: One sample per athlete, metric and day; re-adding replaces the value.
package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/models"
)

var (
	metricAthlete string
	metricDate    string
	metricType    string
	metricLimit   int
)

var metricCmd = &cobra.Command{
	Use:     "metric",
	Aliases: []string{"m"},
	Short:   "Record and list daily metrics",
}

var metricAddCmd = &cobra.Command{
	Use:     "add <type> <value>",
	Aliases: []string{"a"},
	Short:   "Record a daily metric sample",
	Long: `Record a daily metric sample for an athlete.

TYPES:

  hrv            ms     heart rate variability
  sleep_minutes  min    total sleep
  soreness       0-10   subjective soreness (higher is worse)
  jump_height    cm     countermovement jump
  resting_hr     bpm    resting heart rate
  training_load  au     session load (RPE x minutes or similar)

Recording the same metric for the same day again replaces the value.

Examples:
  readiness metric add hrv 48 -a ath-1
  readiness metric add training_load 540 -a ath-1 --date 2026-03-01`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if metricAthlete == "" {
			return fmt.Errorf("--athlete is required")
		}
		if !models.IsValidMetricType(args[0]) {
			return fmt.Errorf("unknown metric type: %s\nValid types: hrv, sleep_minutes, soreness, jump_height, resting_hr, training_load", args[0])
		}

		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value: %s", args[1])
		}

		date, err := parseDate(metricDate)
		if err != nil {
			return err
		}

		db, err := openRepo()
		if err != nil {
			return err
		}

		m := models.NewMetricSample(metricAthlete, models.MetricType(args[0]), value).WithDate(date)
		if err := db.UpsertMetric(context.Background(), m); err != nil {
			return fmt.Errorf("failed to record metric: %w", err)
		}

		color.Green("✓ Recorded %s", args[0])
		fmt.Printf("  %s %s %.2f %s\n",
			color.New(color.Faint).Sprint(m.Date.Format(models.DateLayout)),
			m.AthleteID, m.Value, m.Unit())
		return nil
	},
}

var metricListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List recent metric samples",
	RunE: func(cmd *cobra.Command, args []string) error {
		if metricAthlete == "" {
			return fmt.Errorf("--athlete is required")
		}

		var mt *models.MetricType
		if metricType != "" {
			if !models.IsValidMetricType(metricType) {
				return fmt.Errorf("unknown metric type: %s", metricType)
			}
			t := models.MetricType(metricType)
			mt = &t
		}

		db, err := openRepo()
		if err != nil {
			return err
		}

		samples, err := db.ListMetrics(context.Background(), metricAthlete, mt, metricLimit)
		if err != nil {
			return fmt.Errorf("failed to list metrics: %w", err)
		}

		if len(samples) == 0 {
			fmt.Println("No metrics found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, s := range samples {
			fmt.Printf("%s %s %.2f %s\n",
				faint.Sprint(s.Date.Format(models.DateLayout)),
				padRight(string(s.MetricType), 14),
				s.Value,
				s.Unit())
		}
		return nil
	},
}

func init() {
	metricCmd.PersistentFlags().StringVarP(&metricAthlete, "athlete", "a", "", "athlete ID")
	metricAddCmd.Flags().StringVar(&metricDate, "date", "", "day (YYYY-MM-DD), defaults to today")
	metricListCmd.Flags().StringVarP(&metricType, "type", "t", "", "filter by metric type")
	metricListCmd.Flags().IntVarP(&metricLimit, "limit", "n", 20, "max number of results")

	metricCmd.AddCommand(metricAddCmd)
	metricCmd.AddCommand(metricListCmd)
	rootCmd.AddCommand(metricCmd)
}
