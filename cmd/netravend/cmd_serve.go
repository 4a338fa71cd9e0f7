package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netraven-io/netraven/pkg/gateway"
	"github.com/netraven-io/netraven/pkg/logging"
)

var metricsAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler as a long-lived daemon",
		Long: `serve starts the job scheduler's worker pool and scheduler loop and
blocks until SIGINT/SIGTERM, exposing Prometheus metrics on --metrics-addr.

Job submission (constructing JobDefinitions and calling schedule_job) is
expected to come from an external collaborator such as the REST API or a
persistence layer replaying saved definitions on startup — this command
only runs the engine itself.`,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address to serve /metrics on")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := buildApp()
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}

	application.scheduler.Start()
	defer application.scheduler.Stop()
	defer application.pool.CloseAll()

	mux := http.NewServeMux()
	mux.Handle("/metrics", gateway.MetricsHandler())
	server := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		logging.Logger.Infof("netravend: serving metrics on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Errorf("netravend: metrics server error: %v", err)
		}
	}()
	defer server.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	logging.Logger.Info("netravend: scheduler started, waiting for shutdown signal")
	<-sig
	logging.Logger.Info("netravend: shutdown signal received, stopping")
	return nil
}
