package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netraven-io/netraven/pkg/cliutil"
	"github.com/netraven-io/netraven/pkg/devicecomm"
	"github.com/netraven-io/netraven/pkg/protocol"
)

var (
	adhocProtocol   string
	adhocDeviceType string
	adhocUsername   string
	adhocPort       int
)

func newAdhocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adhoc <host> <command>",
		Short: "Run a single command against a device without storing credentials",
		Args:  cobra.ExactArgs(2),
		Long: `adhoc borrows one connection-pool session, runs a single command, and
prints its output. The password is read from the terminal without echo
(golang.org/x/term) and never written to disk — useful for diagnosing a
device without registering it anywhere.`,
		RunE: runAdhoc,
	}
	cmd.Flags().StringVar(&adhocProtocol, "protocol", "ssh", "protocol: ssh, telnet, or rest")
	cmd.Flags().StringVar(&adhocDeviceType, "device-type", "", "vendor device type, e.g. cisco_ios (default profile if omitted)")
	cmd.Flags().StringVar(&adhocUsername, "username", "", "device username")
	cmd.Flags().IntVar(&adhocPort, "port", 0, "port override (defaults to the protocol's conventional port)")
	return cmd
}

func runAdhoc(cmd *cobra.Command, args []string) error {
	host, command := args[0], args[1]

	application, err := buildApp()
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}
	defer application.pool.CloseAll()

	password, err := cliutil.PromptPassword(os.Stdout, os.Stdin, fmt.Sprintf("password for %s@%s: ", adhocUsername, host))
	if err != nil {
		return err
	}

	req := devicecomm.Request{
		Protocol:   adhocProtocol,
		Host:       host,
		DeviceType: adhocDeviceType,
		Port:       adhocPort,
		Credentials: protocol.Credentials{
			Username: adhocUsername,
			Password: password,
		},
	}

	output, err := application.comm.ExecuteCommand(context.Background(), req, command)
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}
