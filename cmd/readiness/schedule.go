// ABOUTME: CLI command running the daily pipeline batch on a cron schedule.
// ABOUTME: Every athlete with recorded samples is evaluated on each tick.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/engine"
	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/storage"
)

var (
	scheduleSpec string
	scheduleNow  bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily batch on a cron schedule",
	Long: `Run the pipeline for every athlete on a cron schedule.

The spec has six fields including seconds. The default, "0 0 5 * * *",
runs at 05:00 every day. Use --now to also run once at startup.

Examples:
  readiness schedule
  readiness schedule --spec "0 30 4 * * *" --now`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := cfg.GetSchedule()
		if scheduleSpec != "" {
			spec = scheduleSpec
		}
		if _, err := cron.Parse(spec); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", spec, err)
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		batchLog := logger.With("component", "schedule")
		job := func() {
			runDailyBatch(ctx, repo, p, models.Day(time.Now()), batchLog)
		}

		c := cron.New()
		if err := c.AddFunc(spec, job); err != nil {
			return fmt.Errorf("failed to schedule batch: %w", err)
		}
		if scheduleNow {
			job()
		}

		c.Start()
		batchLog.Info("scheduled", "spec", spec)
		<-ctx.Done()
		c.Stop()
		return nil
	},
}

// runDailyBatch runs the pipeline for every known athlete and reports how
// many succeeded. It returns the number of adjustments made.
func runDailyBatch(ctx context.Context, db *storage.DB, p *engine.Pipeline, date time.Time, l *log.Logger) int {
	athletes, err := db.ListAthletes(ctx)
	if err != nil {
		l.Error("list athletes failed", "error", err)
		return 0
	}

	results, err := p.RunBatch(ctx, athletes, date)
	ok, adjusted := 0, 0
	for _, res := range results {
		if res == nil {
			continue
		}
		ok++
		if res.Adjustment != nil {
			adjusted++
		}
	}

	l.Info("batch finished",
		"date", date.Format(models.DateLayout),
		"athletes", len(athletes),
		"succeeded", ok,
		"adjusted", adjusted,
	)
	if err != nil {
		l.Error("batch had failures", "error", err)
	}
	return adjusted
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSpec, "spec", "", "cron spec with seconds (default from config)")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "run once immediately")
	rootCmd.AddCommand(scheduleCmd)
}
