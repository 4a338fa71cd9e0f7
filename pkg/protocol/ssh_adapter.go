package protocol

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/netraven-io/netraven/pkg/catalogue"
	"github.com/netraven-io/netraven/pkg/deviceerr"
	"github.com/netraven-io/netraven/pkg/logging"
)

// SSHAdapter is the primary adapter: real SSH sessions via
// golang.org/x/crypto/ssh, executing commands against any CLI device.
type SSHAdapter struct {
	host       string
	port       int
	deviceType string
	creds      Credentials
	catalogue  *catalogue.Catalogue

	mu        sync.Mutex
	client    *ssh.Client
	connected bool
}

// NewSSHAdapter constructs an unconnected SSH adapter.
func NewSSHAdapter(host string, port int, deviceType string, creds Credentials, cat *catalogue.Catalogue) *SSHAdapter {
	if port == 0 {
		port = DefaultPort("ssh")
	}
	return &SSHAdapter{
		host:       host,
		port:       port,
		deviceType: deviceType,
		creds:      creds,
		catalogue:  cat,
	}
}

func (a *SSHAdapter) authMethods() ([]ssh.AuthMethod, error) {
	if len(a.creds.SSHKey) > 0 {
		signer, err := ssh.ParsePrivateKey(a.creds.SSHKey)
		if err != nil {
			return nil, deviceerr.Wrap(deviceerr.KindSSHKey, "parsing SSH private key", err).WithHost(a.host)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	return []ssh.AuthMethod{ssh.Password(a.creds.Password)}, nil
}

// Connect dials the device over SSH. The device's host key is not
// verified (ssh.InsecureIgnoreHostKey); there is no setting that
// supplies a HostKeyCallback.
func (a *SSHAdapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.connected {
		return nil
	}

	auth, err := a.authMethods()
	if err != nil {
		return err
	}

	timeout := 30 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < timeout {
			timeout = d
		}
	}

	cfg := &ssh.ClientConfig{
		User:            a.creds.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := fmt.Sprintf("%s:%d", a.host, a.port)
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		if isAuthError(err) {
			return deviceerr.Wrap(deviceerr.KindAuthentication, "SSH authentication failed", err).WithHost(a.host)
		}
		if isTimeoutError(err) {
			return deviceerr.Wrap(deviceerr.KindTimeout, "SSH connect timed out", err).WithHost(a.host)
		}
		return deviceerr.Wrap(deviceerr.KindConnection, "SSH dial failed", err).WithHost(a.host)
	}

	a.client = client
	a.connected = true
	logging.WithHost(a.host).Debug("SSH adapter connected")
	return nil
}

func isAuthError(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate") ||
		strings.Contains(err.Error(), "auth")
}

func isTimeoutError(err error) bool {
	var nerr net.Error
	if ne, ok := err.(net.Error); ok {
		nerr = ne
		return nerr.Timeout()
	}
	return strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "timed out")
}

// Disconnect closes the SSH session. Close failures are logged, never
// re-raised.
func (a *SSHAdapter) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.connected {
		return nil
	}
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			logging.WithHost(a.host).Warnf("SSH close failed: %v", err)
		}
	}
	a.client = nil
	a.connected = false
	return nil
}

// IsConnected reports the adapter's last-known state.
func (a *SSHAdapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// SendCommand executes one command over a fresh SSH session (CLI devices
// in this fleet are stateless per-exec) and classifies vendor failure
// output via the capability catalogue.
func (a *SSHAdapter) SendCommand(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	a.mu.Lock()
	client := a.client
	connected := a.connected
	a.mu.Unlock()

	if !connected || client == nil {
		return "", deviceerr.New(deviceerr.KindConnection, "not connected").WithHost(a.host)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)

	go func() {
		session, err := client.NewSession()
		if err != nil {
			done <- result{err: deviceerr.Wrap(deviceerr.KindCommand, "opening SSH session", err).WithHost(a.host).WithCommands(cmd)}
			return
		}
		defer session.Close()

		out, err := session.CombinedOutput(cmd)
		if err != nil {
			done <- result{out: string(out), err: deviceerr.Wrap(deviceerr.KindCommand, "command execution failed", err).WithHost(a.host).WithCommands(cmd)}
			return
		}
		done <- result{out: string(out)}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return r.out, r.err
		}
		if label, found := a.catalogue.DetectError(a.deviceType, r.out); found {
			return r.out, deviceerr.New(deviceerr.KindCommandSyntax, label).WithHost(a.host).WithCommands(cmd)
		}
		return r.out, nil
	case <-time.After(timeout):
		return "", deviceerr.New(deviceerr.KindCommandTimeout, "command timed out").WithHost(a.host).WithCommands(cmd)
	case <-ctx.Done():
		return "", deviceerr.Wrap(deviceerr.KindCommandTimeout, "context cancelled", ctx.Err()).WithHost(a.host).WithCommands(cmd)
	}
}

// SendCommands executes a batch of commands in order, stopping at the
// first failure.
func (a *SSHAdapter) SendCommands(ctx context.Context, cmds []string, timeout time.Duration) (map[string]string, error) {
	out := make(map[string]string, len(cmds))
	for _, cmd := range cmds {
		result, err := a.SendCommand(ctx, cmd, timeout)
		out[cmd] = result
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// GetConfig retrieves one of the running/startup/candidate stores by
// issuing the vendor-appropriate show command via the catalogue.
func (a *SSHAdapter) GetConfig(ctx context.Context, kind ConfigKind) (string, error) {
	var cmd string
	switch kind {
	case ConfigRunning:
		cmd = a.catalogue.Command(a.deviceType, catalogue.CmdShowRunning)
	case ConfigStartup:
		cmd = startupCommand(a.deviceType)
	case ConfigCandidate:
		cmd = candidateCommand(a.deviceType)
		if cmd == "" {
			return "", deviceerr.New(deviceerr.KindProtocolUnsupported, "device type does not support candidate configuration").WithHost(a.host)
		}
	default:
		return "", deviceerr.New(deviceerr.KindParameterInvalid, "unknown config kind").WithHost(a.host)
	}
	timeout := time.Duration(a.catalogue.TimeoutFor(a.deviceType, catalogue.CmdShowRunning)) * time.Second
	return a.SendCommand(ctx, cmd, timeout)
}

func startupCommand(deviceType string) string {
	switch deviceType {
	case "juniper_junos":
		return "show configuration | display set | no-more"
	case "paloalto_panos":
		return "show config saved"
	default:
		return "show startup-config"
	}
}

func candidateCommand(deviceType string) string {
	switch deviceType {
	case "juniper_junos":
		return "show | compare"
	case "paloalto_panos":
		return "show config candidate"
	case "cisco_xr":
		return "show configuration"
	default:
		return ""
	}
}

// CheckConnectivity probes TCP reachability without disturbing the SSH
// session: a bare TCP connect, never ICMP, closed immediately.
func (a *SSHAdapter) CheckConnectivity(ctx context.Context) bool {
	return tcpProbe(a.host, a.port, ReachabilityTimeout)
}

// ConnectionInfo returns a diagnostic snapshot.
func (a *SSHAdapter) ConnectionInfo() ConnectionInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ConnectionInfo{
		Protocol:   "ssh",
		Host:       a.host,
		Port:       a.port,
		DeviceType: a.deviceType,
		Connected:  a.connected,
	}
}

// tcpProbe opens a TCP socket to (host, port), closing it immediately on
// success. Never blocks longer than timeout; never panics.
func tcpProbe(host string, port int, timeout time.Duration) bool {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
