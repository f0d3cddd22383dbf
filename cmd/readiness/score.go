// ABOUTME: CLI commands for readiness, load and trend reads.
// ABOUTME: Computes live from stored samples without persisting snapshots.
package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/models"
)

var (
	readAthlete string
	readDate    string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show the composite readiness score",
	Long: `Show an athlete's composite readiness score for a day.

The score combines same-day hrv, sleep_minutes, soreness and jump_height,
each normalized to 0-100. Missing components are skipped and the remaining
weights renormalized.

BANDS:

  high       85 and above
  moderate   70 to 85
  low        below 70
  no_data    no component recorded that day`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if readAthlete == "" {
			return fmt.Errorf("--athlete is required")
		}
		date, err := parseDate(readDate)
		if err != nil {
			return err
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}

		r, err := p.Scorer().Score(context.Background(), readAthlete, date)
		if err != nil {
			return fmt.Errorf("failed to score readiness: %w", err)
		}

		fmt.Printf("Readiness for %s on %s: %s %s\n",
			r.AthleteID, r.Date.Format(models.DateLayout),
			formatOptional(r.Score, "%.1f"), colorBand(string(r.Band)))

		metrics := make([]string, 0, len(r.Components))
		for mt := range r.Components {
			metrics = append(metrics, string(mt))
		}
		sort.Strings(metrics)

		faint := color.New(color.Faint)
		for _, mt := range metrics {
			t := models.MetricType(mt)
			fmt.Printf("  %s %5.1f %s\n",
				padRight(mt, 14), r.Components[t],
				faint.Sprintf("(weight %.2f)", r.Weights[t]))
		}
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Show the acute:chronic workload ratio",
	Long: `Show an athlete's acute:chronic workload ratio (ACWR) for a day.

Acute load is the 7-day average of training_load, chronic the 28-day average.

BANDS:

  optimal             1.3 and below (below 0.8 is flagged as under-training)
  caution             above 1.3, up to and including 1.5
  danger              above 1.5
  insufficient_data   no chronic load to divide by`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if readAthlete == "" {
			return fmt.Errorf("--athlete is required")
		}
		date, err := parseDate(readDate)
		if err != nil {
			return err
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}

		l, err := p.Classifier().Classify(context.Background(), readAthlete, date)
		if err != nil {
			return fmt.Errorf("failed to classify load: %w", err)
		}

		fmt.Printf("Load for %s on %s: ACWR %s %s\n",
			l.AthleteID, l.Date.Format(models.DateLayout),
			formatOptional(l.ACWR, "%.2f"), colorBand(string(l.Band)))
		fmt.Printf("  daily    %s\n", formatOptional(l.DailyLoad, "%.1f"))
		fmt.Printf("  acute    %s\n", formatOptional(l.Acute7d, "%.1f"))
		fmt.Printf("  chronic  %s\n", formatOptional(l.Chronic28, "%.1f"))
		if l.UnderTrained() {
			color.Yellow("  ⚠ under-training")
		}
		return nil
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend <type>",
	Short: "Show 7, 28, 30 and 90 day averages for a metric",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if readAthlete == "" {
			return fmt.Errorf("--athlete is required")
		}
		if !models.IsValidMetricType(args[0]) {
			return fmt.Errorf("unknown metric type: %s", args[0])
		}
		date, err := parseDate(readDate)
		if err != nil {
			return err
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}

		windows, err := p.Aggregator().Trend(context.Background(), readAthlete, models.MetricType(args[0]), date)
		if err != nil {
			return fmt.Errorf("failed to compute trend: %w", err)
		}

		unit := models.MetricUnits[models.MetricType(args[0])]
		faint := color.New(color.Faint)
		for _, w := range windows {
			fmt.Printf("  %3dd  %s %s %s\n",
				w.WindowDays, formatOptional(w.Average, "%8.2f"), unit,
				faint.Sprintf("(%d samples)", w.Samples))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{scoreCmd, loadCmd, trendCmd} {
		c.Flags().StringVarP(&readAthlete, "athlete", "a", "", "athlete ID")
		c.Flags().StringVar(&readDate, "date", "", "day (YYYY-MM-DD), defaults to today")
		rootCmd.AddCommand(c)
	}
}
