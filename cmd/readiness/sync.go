// ABOUTME: CLI commands for the offline set queue.
// ABOUTME: Supports status, flush, watch, and charm backend link/unlink/repair.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/charm/kv"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/readiness/internal/charm"
	"github.com/harperreed/readiness/internal/models"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Upload queued sets to the server",
	Long: `Manage the offline set queue on this device.

Captured sets stay in local storage until the server acknowledges them.
Each set carries its own ID as an idempotency key, so a set that is
uploaded twice is only recorded once.

COMMANDS:

  status   Show connectivity and the pending count
  flush    Upload everything pending now
  watch    Stay running and upload whenever the server becomes reachable

CHARM BACKEND:

  With queue_backend set to "charm" the queue lives in Charm KV and is
  backed up to Charm Cloud.

  link     Link this device to your Charm account
  unlink   Disconnect this device from Charm
  repair   Repair the local Charm KV database`,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dq, err := openDeviceQueue(ctx)
		if err != nil {
			return err
		}
		defer dq.Close()

		dq.queue.SetOnline(dq.probe.Check(ctx))
		printSyncState(dq.queue.State())
		fmt.Printf("  Server: %s\n", cfg.GetServerURL())
		fmt.Printf("  Device: %s\n", cfg.DeviceID)
		fmt.Printf("  Backend: %s\n", cfg.GetQueueBackend())
		return nil
	},
}

var syncFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Upload all pending sets now",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		dq, err := openDeviceQueue(ctx)
		if err != nil {
			return err
		}
		defer dq.Close()

		if !dq.probe.Check(ctx) {
			color.Yellow("⚠ Server unreachable: %d set(s) remain queued", dq.queue.State().PendingCount)
			return nil
		}
		dq.queue.SetOnline(true)

		res, ran := dq.queue.Flush(ctx)
		if !ran {
			color.Yellow("⚠ A flush is already in progress")
			return nil
		}

		color.Green("✓ Uploaded %d of %d", res.Uploaded, res.Attempted)
		if res.Failed > 0 {
			color.Yellow("⚠ %d failed and remain queued", res.Failed)
		}
		if res.Aborted {
			color.Yellow("⚠ Flush interrupted; remaining sets stay queued")
		}
		return nil
	},
}

var syncWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Upload whenever the server is reachable",
	Long: `Keep running and upload queued sets whenever the server becomes reachable.

The server health endpoint is probed every probe_interval (default 30s).
Going offline aborts an upload pass in progress; the remaining sets are
retried on the next reconnect. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		dq, err := openDeviceQueue(ctx)
		if err != nil {
			return err
		}

		logger.Info("watching", "server", cfg.GetServerURL(), "interval", cfg.GetProbeInterval(), "pending", dq.queue.State().PendingCount)

		stop := dq.start(ctx)
		<-ctx.Done()
		stop()

		printSyncState(dq.queue.State())
		return nil
	},
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to Charm",
	RunE: func(cmd *cobra.Command, args []string) error {
		charmCmd := exec.Command("charm", "link")
		charmCmd.Stdin = os.Stdin
		charmCmd.Stdout = os.Stdout
		charmCmd.Stderr = os.Stderr

		if err := charmCmd.Run(); err != nil {
			return fmt.Errorf("failed to link: %w\n\nMake sure 'charm' CLI is installed: go install github.com/charmbracelet/charm@latest", err)
		}

		color.Green("\n✓ Device linked to Charm")
		if cfg.GetQueueBackend() != "charm" {
			fmt.Println("Set queue_backend to \"charm\" in your config to back the queue up to Charm Cloud.")
			return nil
		}

		client, err := charm.InitClient()
		if err != nil {
			return fmt.Errorf("failed to initialize charm client: %w", err)
		}
		defer client.Close()
		if err := client.Sync(); err != nil {
			color.Yellow("⚠ Initial sync failed: %v", err)
		} else {
			color.Green("✓ Initial sync complete")
		}
		return nil
	},
}

var syncUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Disconnect from Charm",
	Long: `Disconnect this device from Charm.

Queued sets stay on this device.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		charmCmd := exec.Command("charm", "unlink")
		charmCmd.Stdin = os.Stdin
		charmCmd.Stdout = os.Stdout
		charmCmd.Stderr = os.Stderr

		if err := charmCmd.Run(); err != nil {
			return fmt.Errorf("failed to unlink: %w", err)
		}

		color.Green("✓ Device unlinked from Charm")
		return nil
	},
}

var syncRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair the Charm KV queue database",
	Long: `Repair the Charm KV queue database by checkpointing WAL, removing SHM files,
checking integrity, and vacuuming.

Run with --force to attempt recovery even if integrity checks fail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		fmt.Println("Repairing queue database...")
		result, err := kv.Repair(charm.DBName, force)

		if result.WalCheckpointed {
			color.Green("  ✓ WAL checkpointed")
		}
		if result.ShmRemoved {
			color.Green("  ✓ SHM file removed")
		}
		if result.IntegrityOK {
			color.Green("  ✓ Integrity check passed")
		} else {
			color.Red("  ✗ Integrity check failed")
		}
		if result.Vacuumed {
			color.Green("  ✓ Database vacuumed")
		}

		if err != nil {
			if !force {
				color.Yellow("\nRun with --force to attempt recovery.")
			}
			return fmt.Errorf("repair failed: %w", err)
		}

		color.Green("\n✓ Repair complete")
		return nil
	},
}

func printSyncState(st models.SyncState) {
	if st.IsOnline {
		color.Green("✓ Online")
	} else {
		color.Yellow("⚠ Offline")
	}
	fmt.Printf("  Pending: %d\n", st.PendingCount)
	fmt.Printf("  Failures: %d\n", st.Failures)
	if f := st.LastFlush; f != nil {
		fmt.Printf("  Last flush: %s (%d uploaded, %d failed)\n",
			f.FinishedAt.Local().Format("2006-01-02 15:04:05"), f.Uploaded, f.Failed)
	}
}

func init() {
	syncRepairCmd.Flags().Bool("force", false, "Attempt recovery even if integrity checks fail")

	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncFlushCmd)
	syncCmd.AddCommand(syncWatchCmd)
	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncUnlinkCmd)
	syncCmd.AddCommand(syncRepairCmd)
	rootCmd.AddCommand(syncCmd)
}
