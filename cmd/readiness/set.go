// ABOUTME: CLI commands for device-side set capture.
// ABOUTME: Sets are written to the durable queue first and uploaded when reachable.
package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/config"
	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/syncqueue"
)

var (
	setRPE      float64
	setTempo    string
	setVelocity float64
	setOffline  bool
)

// deviceQueue bundles the queue with what it was built from.
type deviceQueue struct {
	queue *syncqueue.Queue
	probe *syncqueue.HTTPProbe
	store syncqueue.PendingStore
}

func (d *deviceQueue) Close() error {
	return d.store.Close()
}

// start runs the probe and the queue in the background. The returned stop
// cancels both and waits for them to exit before closing the store.
func (d *deviceQueue) start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.probe.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := d.queue.Run(ctx, d.probe); err != nil && ctx.Err() == nil {
			logger.Error("queue stopped", "error", err)
		}
	}()

	return func() {
		cancel()
		wg.Wait()
		if err := d.Close(); err != nil {
			logger.Warn("close queue store", "error", err)
		}
	}
}

// openDeviceQueue opens the configured pending store and builds a queue
// against the configured server. A device ID is generated and saved on
// first use.
func openDeviceQueue(ctx context.Context) (*deviceQueue, error) {
	if err := ensureDeviceID(); err != nil {
		return nil, err
	}

	store, err := cfg.OpenQueueStore(logger.With("component", "queue-store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open queue store: %w", err)
	}

	endpoint := syncqueue.NewHTTPEndpoint(cfg.GetServerURL(), cfg.DeviceID, cfg.OAuthConfig())
	q, err := syncqueue.New(ctx, store, endpoint,
		syncqueue.WithLogger(logger.With("component", "syncqueue")),
		syncqueue.WithConcurrency(cfg.GetUploadConcurrency()),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &deviceQueue{
		queue: q,
		probe: syncqueue.NewHTTPProbe(cfg.GetServerURL(), cfg.GetProbeInterval()),
		store: store,
	}, nil
}

// ensureDeviceID persists a generated device ID without writing flag
// overrides back to the config file.
func ensureDeviceID() error {
	if cfg.DeviceID != "" {
		return nil
	}
	onDisk, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if onDisk.EnsureDeviceID() {
		if err := onDisk.Save(); err != nil {
			return fmt.Errorf("failed to save device id: %w", err)
		}
	}
	cfg.DeviceID = onDisk.DeviceID
	return nil
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Log strength-training sets from this device",
}

var setLogCmd = &cobra.Command{
	Use:   "log <session-id> <exercise> <weight> <reps>",
	Short: "Capture a completed set",
	Long: `Capture a completed set on this device.

The set is written to the local queue before anything else happens, so it
survives crashes and restarts. If the server is reachable the queue is
flushed right away; otherwise the set waits for 'readiness sync flush' or
'readiness sync watch'.

Examples:
  readiness set log 3f2a squat 100 5
  readiness set log 3f2a squat 100 5 --rpe 8.5 --tempo 3-1-1
  readiness set log 3f2a bench 70 8 --offline`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		weight, err := strconv.ParseFloat(args[2], 64)
		if err != nil || weight < 0 {
			return fmt.Errorf("invalid weight: %s", args[2])
		}
		reps, err := strconv.Atoi(args[3])
		if err != nil || reps <= 0 {
			return fmt.Errorf("invalid reps: %s", args[3])
		}

		e := models.NewPendingSetEntry(args[0], args[1], weight, reps)
		if cmd.Flags().Changed("rpe") {
			e.WithRPE(setRPE)
		}
		if setTempo != "" {
			e.WithTempo(setTempo)
		}
		if cmd.Flags().Changed("velocity") {
			e.WithVelocity(setVelocity)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		dq, err := openDeviceQueue(ctx)
		if err != nil {
			return err
		}
		defer dq.Close()

		if !setOffline {
			dq.queue.SetOnline(dq.probe.Check(ctx))
		}

		if err := dq.queue.Capture(ctx, *e); err != nil {
			if errors.Is(err, syncqueue.ErrCaptureFailed) {
				color.Red("✗ Set was NOT saved")
			}
			return err
		}

		color.Green("✓ Captured %s %.2f x %d", e.Exercise, e.Weight, e.Reps)
		fmt.Printf("  %s\n", color.New(color.Faint).Sprint(e.LocalID))

		st := dq.queue.State()
		switch {
		case st.PendingCount == 0:
			color.Green("✓ Synced")
		case st.IsOnline:
			color.Yellow("⚠ %d set(s) pending after flush", st.PendingCount)
		default:
			color.Yellow("⚠ Offline: %d set(s) pending", st.PendingCount)
		}
		return nil
	},
}

func init() {
	setLogCmd.Flags().Float64Var(&setRPE, "rpe", 0, "rate of perceived exertion")
	setLogCmd.Flags().StringVar(&setTempo, "tempo", "", "tempo, e.g. 3-1-1")
	setLogCmd.Flags().Float64Var(&setVelocity, "velocity", 0, "mean concentric velocity (m/s)")
	setLogCmd.Flags().BoolVar(&setOffline, "offline", false, "queue without probing the server")

	setCmd.AddCommand(setLogCmd)
	rootCmd.AddCommand(setCmd)
}
