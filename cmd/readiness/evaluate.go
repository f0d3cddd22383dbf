// ABOUTME: CLI commands for running the pipeline and inspecting adjustments.
// ABOUTME: Covers run, evaluate and the adjustment audit log.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/engine"
	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/storage"
)

var (
	runAthlete string
	runDate    string
	runAll     bool

	evaluateAthlete string

	adjustmentsCurrent bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Score, classify and adjust the next planned session",
	Long: `Run the full pipeline for one athlete, or for every athlete with --all.

For each athlete the readiness score and load record are computed and stored,
then the next planned session on or after the date is evaluated. Any
adjustment is appended to the audit log.

Examples:
  readiness run -a ath-1
  readiness run --all --date 2026-03-02`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runAthlete == "" && !runAll {
			return fmt.Errorf("--athlete or --all is required")
		}
		date, err := parseDate(runDate)
		if err != nil {
			return err
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}
		ctx := context.Background()

		if !runAll {
			res, err := p.Run(ctx, runAthlete, date)
			if err != nil {
				return fmt.Errorf("pipeline failed: %w", err)
			}
			printResult(res)
			return nil
		}

		athletes, err := repo.ListAthletes(ctx)
		if err != nil {
			return fmt.Errorf("failed to list athletes: %w", err)
		}
		results, batchErr := p.RunBatch(ctx, athletes, date)
		for _, res := range results {
			if res != nil {
				printResult(res)
			}
		}
		if batchErr != nil {
			return fmt.Errorf("batch finished with errors: %w", batchErr)
		}
		return nil
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <session-id>",
	Short: "Evaluate a planned session against today's signals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}
		ctx := context.Background()

		planned, err := repo.GetPlannedSession(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}
		athleteID := evaluateAthlete
		if athleteID == "" {
			athleteID = planned.AthleteID
		}

		adj, err := p.Adjuster().Evaluate(ctx, athleteID, planned.ID, *planned)
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
		printAdjustment(adj)
		return nil
	},
}

var adjustmentsCmd = &cobra.Command{
	Use:     "adjustments <session-id>",
	Aliases: []string{"adj"},
	Short:   "Show the adjustment history for a session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRepo()
		if err != nil {
			return err
		}
		ctx := context.Background()

		if adjustmentsCurrent {
			adj, err := db.CurrentAdjustment(ctx, args[0])
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Println("No adjustment recorded: session runs as planned.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get adjustment: %w", err)
			}
			printAdjustment(adj)
			return nil
		}

		history, err := db.ListAdjustments(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to list adjustments: %w", err)
		}
		if len(history) == 0 {
			fmt.Println("No adjustments found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, a := range history {
			fmt.Printf("%s %s %s x%.2f\n",
				faint.Sprint(shortID(a.ID.String())),
				faint.Sprint(a.CreatedAt.Local().Format("2006-01-02 15:04")),
				padRight(string(a.Reason), 16),
				a.Factor)
		}
		return nil
	},
}

func printResult(res *engine.Result) {
	fmt.Printf("%s %s  readiness %s %s  load %s %s\n",
		color.New(color.Bold).Sprint(res.AthleteID),
		res.Date.Format(models.DateLayout),
		formatOptional(res.Readiness.Score, "%.1f"), colorBand(string(res.Readiness.Band)),
		formatOptional(res.Load.ACWR, "%.2f"), colorBand(string(res.Load.Band)))

	switch {
	case res.Session == nil:
		fmt.Println(color.New(color.Faint).Sprint("  no planned session"))
	case res.Adjustment == nil:
		fmt.Printf("  session %s runs as planned\n", shortID(res.Session.ID))
	default:
		fmt.Printf("  session %s adjusted: %s x%.2f\n",
			shortID(res.Session.ID), res.Adjustment.Reason, res.Adjustment.Factor)
	}
}

func printAdjustment(adj *models.ProgramAdjustment) {
	if adj == nil {
		color.Green("✓ No adjustment: session proceeds as planned")
		return
	}
	color.Yellow("⚠ Adjusted: %s x%.2f", adj.Reason, adj.Factor)
	fmt.Printf("  ID: %s\n", adj.ID.String())
	fmt.Println("  Before:")
	printExercises(adj.OldPayload.Exercises)
	fmt.Println("  After:")
	printExercises(adj.NewPayload.Exercises)
}

func init() {
	runCmd.Flags().StringVarP(&runAthlete, "athlete", "a", "", "athlete ID")
	runCmd.Flags().StringVar(&runDate, "date", "", "day (YYYY-MM-DD), defaults to today")
	runCmd.Flags().BoolVar(&runAll, "all", false, "run every athlete with recorded samples")
	evaluateCmd.Flags().StringVarP(&evaluateAthlete, "athlete", "a", "", "athlete ID (defaults to the session's athlete)")
	adjustmentsCmd.Flags().BoolVar(&adjustmentsCurrent, "current", false, "show only the current effective adjustment")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(adjustmentsCmd)
}
