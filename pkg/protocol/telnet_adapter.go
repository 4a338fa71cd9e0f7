package protocol

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/netraven-io/netraven/pkg/catalogue"
	"github.com/netraven-io/netraven/pkg/deviceerr"
	"github.com/netraven-io/netraven/pkg/logging"
)

// Telnet IAC negotiation bytes: the minimal option-negotiation subset
// needed to drive a CLI prompt. We refuse every option the remote offers
// (WONT/DONT) except echo suppression, which we accept so password
// prompts are not echoed back to us.
const (
	iac     byte = 255
	will    byte = 251
	wont    byte = 252
	do      byte = 253
	dont    byte = 254
	optEcho byte = 1
)

// TelnetAdapter is the Telnet adapter for legacy CLI-only devices, built
// directly on net.Conn.
type TelnetAdapter struct {
	host       string
	port       int
	deviceType string
	creds      Credentials
	catalogue  *catalogue.Catalogue

	mu        sync.Mutex
	conn      net.Conn
	reader    *bufio.Reader
	connected bool
}

// NewTelnetAdapter constructs an unconnected Telnet adapter.
func NewTelnetAdapter(host string, port int, deviceType string, creds Credentials, cat *catalogue.Catalogue) *TelnetAdapter {
	if port == 0 {
		port = DefaultPort("telnet")
	}
	return &TelnetAdapter{host: host, port: port, deviceType: deviceType, creds: creds, catalogue: cat}
}

// Connect dials the device and performs username/password login at the
// CLI prompt.
func (a *TelnetAdapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.connected {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", a.host, a.port)
	conn, err := net.DialTimeout("tcp", addr, 15*time.Second)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return deviceerr.Wrap(deviceerr.KindTimeout, "telnet connect timed out", err).WithHost(a.host)
		}
		return deviceerr.Wrap(deviceerr.KindConnection, "telnet dial failed", err).WithHost(a.host)
	}

	a.conn = conn
	a.reader = bufio.NewReader(newIACFilterReader(conn))

	if err := a.login(); err != nil {
		conn.Close()
		a.conn = nil
		a.reader = nil
		return err
	}

	a.connected = true
	logging.WithHost(a.host).Debug("Telnet adapter connected")
	return nil
}

func (a *TelnetAdapter) login() error {
	if _, err := a.readUntil("ogin:", "sername:", 10*time.Second); err != nil {
		return deviceerr.Wrap(deviceerr.KindConnection, "waiting for telnet login prompt", err).WithHost(a.host)
	}
	if err := a.write(a.creds.Username + "\r\n"); err != nil {
		return deviceerr.Wrap(deviceerr.KindConnection, "sending telnet username", err).WithHost(a.host)
	}
	if _, err := a.readUntil("assword:", "", 10*time.Second); err != nil {
		return deviceerr.Wrap(deviceerr.KindConnection, "waiting for telnet password prompt", err).WithHost(a.host)
	}
	if err := a.write(a.creds.Password + "\r\n"); err != nil {
		return deviceerr.Wrap(deviceerr.KindConnection, "sending telnet password", err).WithHost(a.host)
	}
	out, err := a.readUntil("#", ">", 10*time.Second)
	if err != nil {
		return deviceerr.Wrap(deviceerr.KindAuthentication, "telnet login did not reach a command prompt", err).WithHost(a.host)
	}
	if strings.Contains(strings.ToLower(out), "invalid") || strings.Contains(strings.ToLower(out), "denied") {
		return deviceerr.New(deviceerr.KindAuthentication, "telnet credentials rejected").WithHost(a.host)
	}
	return nil
}

func (a *TelnetAdapter) write(s string) error {
	_, err := a.conn.Write([]byte(s))
	return err
}

// readUntil reads until one of two substrings appears, or timeout elapses.
func (a *TelnetAdapter) readUntil(marker1, marker2 string, timeout time.Duration) (string, error) {
	a.conn.SetReadDeadline(time.Now().Add(timeout))
	defer a.conn.SetReadDeadline(time.Time{})

	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := a.reader.Read(buf)
		if n > 0 {
			sb.WriteByte(buf[0])
			s := sb.String()
			if strings.Contains(s, marker1) || (marker2 != "" && strings.Contains(s, marker2)) {
				return s, nil
			}
		}
		if err != nil {
			return sb.String(), err
		}
	}
}

// Disconnect closes the telnet session.
func (a *TelnetAdapter) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			logging.WithHost(a.host).Warnf("telnet close failed: %v", err)
		}
	}
	a.conn = nil
	a.connected = false
	return nil
}

// IsConnected reports the adapter's last-known state.
func (a *TelnetAdapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// SendCommand writes a command and reads until the next prompt or
// timeout elapses.
func (a *TelnetAdapter) SendCommand(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.connected {
		return "", deviceerr.New(deviceerr.KindConnection, "not connected").WithHost(a.host)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if err := a.write(cmd + "\r\n"); err != nil {
		return "", deviceerr.Wrap(deviceerr.KindCommand, "sending telnet command", err).WithHost(a.host).WithCommands(cmd)
	}

	out, err := a.readUntil("#", ">", timeout)
	if err != nil {
		return out, deviceerr.New(deviceerr.KindCommandTimeout, "command timed out").WithHost(a.host).WithCommands(cmd)
	}
	if label, found := a.catalogue.DetectError(a.deviceType, out); found {
		return out, deviceerr.New(deviceerr.KindCommandSyntax, label).WithHost(a.host).WithCommands(cmd)
	}
	return out, nil
}

// SendCommands runs a batch of commands in order, stopping at the first
// failure.
func (a *TelnetAdapter) SendCommands(ctx context.Context, cmds []string, timeout time.Duration) (map[string]string, error) {
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

// GetConfig retrieves the running configuration store; telnet devices in
// this fleet are legacy CLI-only and do not expose startup/candidate
// separately from the running show command.
func (a *TelnetAdapter) GetConfig(ctx context.Context, kind ConfigKind) (string, error) {
	if kind != ConfigRunning {
		return "", deviceerr.New(deviceerr.KindProtocolUnsupported, "telnet adapter only supports the running configuration store").WithHost(a.host)
	}
	cmd := a.catalogue.Command(a.deviceType, catalogue.CmdShowRunning)
	timeout := time.Duration(a.catalogue.TimeoutFor(a.deviceType, catalogue.CmdShowRunning)) * time.Second
	return a.SendCommand(ctx, cmd, timeout)
}

// CheckConnectivity performs a bare TCP probe, independent of the active
// telnet session.
func (a *TelnetAdapter) CheckConnectivity(ctx context.Context) bool {
	return tcpProbe(a.host, a.port, ReachabilityTimeout)
}

// ConnectionInfo returns a diagnostic snapshot.
func (a *TelnetAdapter) ConnectionInfo() ConnectionInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ConnectionInfo{
		Protocol:   "telnet",
		Host:       a.host,
		Port:       a.port,
		DeviceType: a.deviceType,
		Connected:  a.connected,
	}
}

// iacFilterReader strips Telnet IAC negotiation sequences from the byte
// stream, auto-refusing everything except echo suppression.
type iacFilterReader struct {
	conn net.Conn
}

func newIACFilterReader(conn net.Conn) *iacFilterReader {
	return &iacFilterReader{conn: conn}
}

func (r *iacFilterReader) Read(p []byte) (int, error) {
	raw := make([]byte, len(p))
	n, err := r.conn.Read(raw)
	if n == 0 {
		return 0, err
	}

	out := p[:0]
	i := 0
	for i < n {
		b := raw[i]
		if b != iac {
			out = append(out, b)
			i++
			continue
		}
		// IAC sequence: IAC <cmd> <option>
		if i+2 >= n {
			i = n
			break
		}
		cmd := raw[i+1]
		opt := raw[i+2]
		r.respond(cmd, opt)
		i += 3
	}
	return len(out), err
}

func (r *iacFilterReader) respond(cmd, opt byte) {
	switch cmd {
	case do:
		if opt == optEcho {
			r.conn.Write([]byte{iac, will, opt})
		} else {
			r.conn.Write([]byte{iac, wont, opt})
		}
	case will:
		if opt == optEcho {
			r.conn.Write([]byte{iac, do, opt})
		} else {
			r.conn.Write([]byte{iac, dont, opt})
		}
	}
}
