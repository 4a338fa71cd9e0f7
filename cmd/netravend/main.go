// netravend is the NetRaven core process: it wires together the
// capability catalogue, connection pool, device communication service,
// and job scheduler and runs them as a long-lived daemon (serve), a
// short fixed-length scheduler run for batch/cron-driven invocation (run-once), or
// a one-off command against a device without persisting credentials
// (adhoc). The HTTP REST API, its authentication, and the admin CLI
// surface are external collaborators and are not part of this binary;
// this is process wiring for the scheduler core only.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netraven-io/netraven/pkg/version"
)

var (
	configPath string
	logLevel   string
	logJSON    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "netravend",
		Short: "NetRaven device backup and command scheduler",
		Long: `netravend runs the NetRaven job scheduler: a priority-queued,
recurrence-aware engine that backs up and runs commands against a fleet
of network devices over SSH/Telnet/REST, using a vendor-aware command
catalogue to adapt to each device family.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults applied for anything omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit structured JSON logs instead of text")

	rootCmd.AddCommand(
		newServeCmd(),
		newRunOnceCmd(),
		newAdhocCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(version.Info())
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
