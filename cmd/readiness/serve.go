// ABOUTME: CLI command for the HTTP API server.
// ABOUTME: Serves set submission and dashboard reads until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/api"
)

var (
	serveAddr      string
	serveAccessLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server.

ENDPOINTS:

  GET  /healthz                                  reachability probe
  POST /v1/sets                                  submit a set (Idempotency-Key header)
  GET  /v1/athletes/{athlete}/readiness/{date}   stored readiness score
  GET  /v1/athletes/{athlete}/load/{date}        stored load record
  GET  /v1/sessions/{session}/adjustments        adjustment history
  GET  /v1/sessions/{session}/adjustments/current

Replaying a set with the same Idempotency-Key returns 200 and the original
acknowledgement without storing it again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRepo()
		if err != nil {
			return err
		}

		addr := cfg.GetListenAddr()
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		server := api.NewServer(db, logger.With("component", "api"))

		if serveAccessLog {
			return server.ListenAndServe(ctx, addr, os.Stderr)
		}
		return server.ListenAndServe(ctx, addr, nil)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().BoolVar(&serveAccessLog, "access-log", true, "write an access log to stderr")
	rootCmd.AddCommand(serveCmd)
}
