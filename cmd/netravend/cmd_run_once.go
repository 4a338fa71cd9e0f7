package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/netraven-io/netraven/pkg/logging"
)

func newRunOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-once",
		Short: "Start the scheduler, let due jobs drain, then stop",
		Long: `run-once starts the scheduler with its configured worker pool, waits a
fixed two seconds so already-due recurring jobs can be promoted and
picked up, then stops. Jobs still running when the scheduler's shutdown
timeout expires are not waited for. Intended for invocation from an
external cron/batch scheduler rather than running netravend as a daemon.`,
		RunE: runRunOnce,
	}
}

func runRunOnce(cmd *cobra.Command, args []string) error {
	application, err := buildApp()
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}

	application.scheduler.Start()
	time.Sleep(2 * time.Second)
	application.scheduler.Stop()
	application.pool.CloseAll()

	status := application.scheduler.GetServiceStatus()
	logging.Logger.Infof("netravend: run-once complete, %d jobs still queued", status.QueueDepth)
	return nil
}
