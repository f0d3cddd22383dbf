// ABOUTME: CLI commands for planned training sessions.
// ABOUTME: Exercises are given as name:SETSxREPS@WEIGHT with an optional /VOLUME.
package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/models"
)

var (
	sessionAthlete   string
	sessionDate      string
	sessionExercises []string
	sessionNotes     string
	sessionLimit     int
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sess"},
	Short:   "Plan and inspect training sessions",
}

var sessionAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Plan a training session",
	Long: `Plan a training session for an athlete.

Each --exercise is name:SETSxREPS@WEIGHT, optionally followed by /VOLUME.

Examples:
  readiness session add -a ath-1 -e squat:5x5@100
  readiness session add -a ath-1 --date 2026-03-03 -e bench:4x8@70 -e row:3x10@60/1800`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionAthlete == "" {
			return fmt.Errorf("--athlete is required")
		}
		if len(sessionExercises) == 0 {
			return fmt.Errorf("at least one --exercise is required")
		}
		date, err := parseDate(sessionDate)
		if err != nil {
			return err
		}

		s := models.NewPlannedSession(sessionAthlete, date)
		for _, raw := range sessionExercises {
			e, err := parseExercise(raw)
			if err != nil {
				return err
			}
			s.WithExercise(e)
		}
		if sessionNotes != "" {
			s.WithNotes(sessionNotes)
		}

		db, err := openRepo()
		if err != nil {
			return err
		}
		if err := db.SavePlannedSession(context.Background(), s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		color.Green("✓ Planned session for %s", s.AthleteID)
		fmt.Printf("  ID: %s\n", s.ID)
		fmt.Printf("  Date: %s\n", date.Format(models.DateLayout))
		printExercises(s.Exercises)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List planned sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sessionAthlete == "" {
			return fmt.Errorf("--athlete is required")
		}

		db, err := openRepo()
		if err != nil {
			return err
		}

		sessions, err := db.ListPlannedSessions(context.Background(), sessionAthlete, sessionLimit)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, s := range sessions {
			names := make([]string, 0, len(s.Exercises))
			for _, e := range s.Exercises {
				names = append(names, e.Name)
			}
			fmt.Printf("%s %s %s\n",
				faint.Sprint(shortID(s.ID)),
				faint.Sprint(s.ScheduledFor.Format(models.DateLayout)),
				truncate(strings.Join(names, ", "), 50))
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a planned session and its current adjustment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRepo()
		if err != nil {
			return err
		}
		ctx := context.Background()

		s, err := db.GetPlannedSession(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}

		fmt.Printf("Session: %s\n", s.ID)
		fmt.Printf("Athlete: %s\n", s.AthleteID)
		fmt.Printf("Date: %s\n", s.ScheduledFor.Format(models.DateLayout))
		if s.Notes != nil {
			fmt.Printf("Notes: %s\n", *s.Notes)
		}
		fmt.Println("\nPlanned:")
		printExercises(s.Exercises)

		if adj, err := db.CurrentAdjustment(ctx, s.ID); err == nil {
			fmt.Printf("\nAdjusted (%s x%.2f):\n", adj.Reason, adj.Factor)
			printExercises(adj.NewPayload.Exercises)
		}
		return nil
	},
}

// parseExercise parses name:SETSxREPS@WEIGHT[/VOLUME].
func parseExercise(raw string) (models.PlannedExercise, error) {
	bad := fmt.Errorf("invalid exercise %q (use name:SETSxREPS@WEIGHT[/VOLUME])", raw)

	name, rest, ok := strings.Cut(raw, ":")
	if !ok || name == "" {
		return models.PlannedExercise{}, bad
	}
	scheme, load, ok := strings.Cut(rest, "@")
	if !ok {
		return models.PlannedExercise{}, bad
	}
	setsStr, repsStr, ok := strings.Cut(scheme, "x")
	if !ok {
		return models.PlannedExercise{}, bad
	}
	weightStr, volumeStr, hasVolume := strings.Cut(load, "/")

	e := models.PlannedExercise{Name: name}
	var err error
	if e.Sets, err = strconv.Atoi(setsStr); err != nil || e.Sets <= 0 {
		return models.PlannedExercise{}, bad
	}
	if e.Reps, err = strconv.Atoi(repsStr); err != nil || e.Reps <= 0 {
		return models.PlannedExercise{}, bad
	}
	if e.Weight, err = strconv.ParseFloat(weightStr, 64); err != nil || e.Weight < 0 {
		return models.PlannedExercise{}, bad
	}
	if hasVolume {
		if e.Volume, err = strconv.ParseFloat(volumeStr, 64); err != nil || e.Volume < 0 {
			return models.PlannedExercise{}, bad
		}
	}
	return e, nil
}

func printExercises(exercises []models.PlannedExercise) {
	for _, e := range exercises {
		volume := ""
		if e.Volume > 0 {
			volume = color.New(color.Faint).Sprintf(" (volume %.2f)", e.Volume)
		}
		fmt.Printf("  %s %dx%d @ %.2f%s\n", padRight(e.Name, 16), e.Sets, e.Reps, e.Weight, volume)
	}
}

func init() {
	sessionCmd.PersistentFlags().StringVarP(&sessionAthlete, "athlete", "a", "", "athlete ID")
	sessionAddCmd.Flags().StringVar(&sessionDate, "date", "", "scheduled day (YYYY-MM-DD), defaults to today")
	sessionAddCmd.Flags().StringArrayVarP(&sessionExercises, "exercise", "e", nil, "exercise as name:SETSxREPS@WEIGHT[/VOLUME]")
	sessionAddCmd.Flags().StringVar(&sessionNotes, "notes", "", "notes for the session")
	sessionListCmd.Flags().IntVarP(&sessionLimit, "limit", "n", 20, "max number of results")

	sessionCmd.AddCommand(sessionAddCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	rootCmd.AddCommand(sessionCmd)
}
