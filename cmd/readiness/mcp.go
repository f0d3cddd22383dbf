// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for Claude integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/mcp"
)

var mcpWithQueue bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout. Logs go to stderr.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "readiness": {
        "command": "readiness",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  add_metric          Record a daily metric sample
  list_metrics        List recent samples
  get_readiness       Readiness score and band for a day
  get_load            ACWR and risk band for a day
  trend               7/28/30/90 day averages for a metric
  plan_session        Schedule a planned session
  run_pipeline        Score, classify and evaluate the next session
  evaluate_session    Evaluate one session and record any adjustment
  list_adjustments    Adjustment history for a session
  current_adjustment  Current effective adjustment for a session
  sync_status         Offline set queue state (with --queue)

AVAILABLE RESOURCES:

  readiness://today         Readiness and load for every athlete today
  readiness://adjustments   Recent adjustments per athlete
  readiness://sync          Offline set queue state`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		pipeline, err := newPipeline()
		if err != nil {
			return err
		}

		var queue mcp.QueueState
		if mcpWithQueue {
			dq, err := openDeviceQueue(ctx)
			if err != nil {
				return err
			}
			stop := dq.start(ctx)
			defer stop()
			queue = dq.queue
		}

		server, err := mcp.NewServer(repo, pipeline, queue)
		if err != nil {
			return err
		}
		return server.Serve(ctx)
	},
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpWithQueue, "queue", false, "attach this device's set queue and keep it syncing")
	rootCmd.AddCommand(mcpCmd)
}
