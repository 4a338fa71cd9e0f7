package protocol

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/netraven-io/netraven/pkg/deviceerr"
	"github.com/netraven-io/netraven/pkg/logging"
)

// RESTAdapter drives device HTTP APIs (Palo Alto PAN-OS XML/REST, F5
// iControl REST) through generic "METHOD /path" commands over net/http
// with basic auth per request.
type RESTAdapter struct {
	host       string
	port       int
	deviceType string
	creds      Credentials
	insecure   bool

	mu        sync.Mutex
	client    *http.Client
	connected bool
}

// NewRESTAdapter constructs an unconnected REST adapter.
func NewRESTAdapter(host string, port int, deviceType string, creds Credentials) *RESTAdapter {
	if port == 0 {
		port = DefaultPort("rest")
	}
	return &RESTAdapter{host: host, port: port, deviceType: deviceType, creds: creds}
}

// Connect validates reachability and credentials with a lightweight probe
// GET against the device's API root. REST sessions are otherwise
// stateless (HTTP basic auth per request), so "connect" just builds the
// shared client and confirms the endpoint answers.
func (a *RESTAdapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.connected {
		return nil
	}

	a.client = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: a.insecure},
		},
	}

	req, err := a.newRequest(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return classifyHTTPError(err, a.host)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return deviceerr.New(deviceerr.KindAuthentication, fmt.Sprintf("REST auth rejected (status %d)", resp.StatusCode)).WithHost(a.host)
	}

	a.connected = true
	logging.WithHost(a.host).Debug("REST adapter connected")
	return nil
}

func (a *RESTAdapter) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("https://%s:%d%s", a.host, a.port, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, deviceerr.Wrap(deviceerr.KindCommand, "building REST request", err).WithHost(a.host)
	}
	if a.creds.Username != "" {
		req.SetBasicAuth(a.creds.Username, a.creds.Password)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func classifyHTTPError(err error, host string) error {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return deviceerr.Wrap(deviceerr.KindTimeout, "REST request timed out", err).WithHost(host)
	}
	return deviceerr.Wrap(deviceerr.KindConnection, "REST request failed", err).WithHost(host)
}

// Disconnect releases the HTTP client. REST has no persistent session to
// tear down server-side by default.
func (a *RESTAdapter) Disconnect() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = false
	a.client = nil
	return nil
}

// IsConnected reports the adapter's last-known state.
func (a *RESTAdapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// SendCommand interprets cmd as "METHOD /path" (method defaults to GET
// when omitted) and returns the raw response body.
func (a *RESTAdapter) SendCommand(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
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

	method, path := parseRESTCommand(cmd)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := a.newRequest(ctx, method, path, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", deviceerr.New(deviceerr.KindCommandTimeout, "command timed out").WithHost(a.host).WithCommands(cmd)
		}
		return "", deviceerr.Wrap(deviceerr.KindCommand, "REST command failed", err).WithHost(a.host).WithCommands(cmd)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", deviceerr.Wrap(deviceerr.KindCommand, "reading REST response", err).WithHost(a.host).WithCommands(cmd)
	}
	if resp.StatusCode >= 400 {
		return string(body), deviceerr.New(deviceerr.KindCommand, fmt.Sprintf("REST command returned status %d", resp.StatusCode)).WithHost(a.host).WithCommands(cmd)
	}
	return string(body), nil
}

func parseRESTCommand(cmd string) (method, path string) {
	parts := strings.SplitN(strings.TrimSpace(cmd), " ", 2)
	if len(parts) == 2 {
		m := strings.ToUpper(parts[0])
		switch m {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			return m, parts[1]
		}
	}
	return http.MethodGet, cmd
}

// SendCommands runs a batch of commands in order, stopping at the first
// failure.
func (a *RESTAdapter) SendCommands(ctx context.Context, cmds []string, timeout time.Duration) (map[string]string, error) {
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

// GetConfig retrieves a configuration store via the conventional REST
// config endpoints.
func (a *RESTAdapter) GetConfig(ctx context.Context, kind ConfigKind) (string, error) {
	var path string
	switch kind {
	case ConfigRunning:
		path = "/api/config/running"
	case ConfigStartup:
		path = "/api/config/startup"
	case ConfigCandidate:
		path = "/api/config/candidate"
	default:
		return "", deviceerr.New(deviceerr.KindParameterInvalid, "unknown config kind").WithHost(a.host)
	}
	return a.SendCommand(ctx, "GET "+path, 30*time.Second)
}

// CheckConnectivity performs a bare TCP probe to (host, port).
func (a *RESTAdapter) CheckConnectivity(ctx context.Context) bool {
	return tcpProbe(a.host, a.port, ReachabilityTimeout)
}

// ConnectionInfo returns a diagnostic snapshot.
func (a *RESTAdapter) ConnectionInfo() ConnectionInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ConnectionInfo{
		Protocol:   "rest",
		Host:       a.host,
		Port:       a.port,
		DeviceType: a.deviceType,
		Connected:  a.connected,
	}
}
