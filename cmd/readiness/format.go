// ABOUTME: Shared CLI formatting helpers.
// ABOUTME: Band colours, date parsing and column padding.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/harperreed/readiness/internal/models"
)

// bandColors is the single colour table for readiness and load bands.
var bandColors = map[string]*color.Color{
	string(models.ReadinessHigh):        color.New(color.FgGreen, color.Bold),
	string(models.ReadinessModerate):    color.New(color.FgYellow),
	string(models.ReadinessLow):         color.New(color.FgRed, color.Bold),
	string(models.ReadinessNoData):      color.New(color.Faint),
	string(models.LoadOptimal):          color.New(color.FgGreen),
	string(models.LoadCaution):          color.New(color.FgYellow),
	string(models.LoadDanger):           color.New(color.FgRed, color.Bold),
	string(models.LoadInsufficientData): color.New(color.Faint),
}

func colorBand(band string) string {
	if c, ok := bandColors[band]; ok {
		return c.Sprint(band)
	}
	return band
}

// parseDate parses YYYY-MM-DD, defaulting to today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return models.Day(time.Now()), nil
	}
	t, err := models.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", s)
	}
	return t, nil
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return color.New(color.Faint).Sprint("-")
	}
	return fmt.Sprintf(format, *v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
