// ABOUTME: MCP resource implementations for the readiness engine.
// ABOUTME: Provides readiness://today, readiness://adjustments and readiness://sync resources.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/storage"
)

const (
	uriToday       = "readiness://today"
	uriAdjustments = "readiness://adjustments"
	uriSync        = "readiness://sync"

	// recentAdjustmentLimit caps adjustments per athlete in readiness://adjustments.
	recentAdjustmentLimit = 5
)

func (s *Server) registerResources() {
	// readiness://today - Stored readiness and load for every athlete
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uriToday,
		Name:        "Today's Readiness Dashboard",
		Description: "Readiness score and load band for every known athlete today",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	// readiness://adjustments - Recent adjustments per athlete
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uriAdjustments,
		Name:        "Recent Adjustments",
		Description: "Most recent program adjustments for every known athlete",
		MIMEType:    "application/json",
	}, s.handleAdjustmentsResource)

	// readiness://sync - Offline set queue state
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uriSync,
		Name:        "Set Sync Status",
		Description: "Connectivity, pending count and last flush of the offline set queue",
		MIMEType:    "application/json",
	}, s.handleSyncResource)
}

type athleteToday struct {
	AthleteID string                 `json:"athlete_id"`
	Readiness *models.ReadinessScore `json:"readiness,omitempty"`
	Load      *models.LoadRecord     `json:"load,omitempty"`
}

// Resource handlers

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	today := models.Day(s.now())

	athletes, err := s.repo.ListAthletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}

	rows := make([]athleteToday, 0, len(athletes))
	for _, id := range athletes {
		row := athleteToday{AthleteID: id}

		r, err := s.repo.GetReadiness(ctx, id, today)
		switch {
		case err == nil:
			row.Readiness = r
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("failed to get readiness for %s: %w", id, err)
		}

		l, err := s.repo.GetLoad(ctx, id, today)
		switch {
		case err == nil:
			row.Load = l
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("failed to get load for %s: %w", id, err)
		}

		rows = append(rows, row)
	}

	return jsonResource(uriToday, map[string]interface{}{
		"date":     today.Format(models.DateLayout),
		"athletes": rows,
	})
}

func (s *Server) handleAdjustmentsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	athletes, err := s.repo.ListAthletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}

	result := make(map[string][]*models.ProgramAdjustment, len(athletes))
	for _, id := range athletes {
		adjustments, err := s.repo.ListAthleteAdjustments(ctx, id, recentAdjustmentLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list adjustments for %s: %w", id, err)
		}
		if len(adjustments) > 0 {
			result[id] = adjustments
		}
	}

	return jsonResource(uriAdjustments, result)
}

func (s *Server) handleSyncResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if s.queue == nil {
		return jsonResource(uriSync, map[string]interface{}{
			"attached": false,
		})
	}
	return jsonResource(uriSync, s.queue.State())
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
