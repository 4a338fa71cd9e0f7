package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netraven-io/netraven/pkg/catalogue"
	"github.com/netraven-io/netraven/pkg/devicecomm"
	"github.com/netraven-io/netraven/pkg/distlock"
	"github.com/netraven-io/netraven/pkg/pool"
	"github.com/netraven-io/netraven/pkg/protocol"
)

// fakeAdapter and fakeFactory mirror the ones in pkg/devicecomm, scoped to
// this package since Adapter and AdapterFactory are not exported as a
// shared test double.
type fakeAdapter struct {
	connected bool
	nextErr   error
	reachable bool
	config    string
}

func (f *fakeAdapter) Connect(ctx context.Context) error  { f.connected = true; return nil }
func (f *fakeAdapter) Disconnect() error                  { f.connected = false; return nil }
func (f *fakeAdapter) IsConnected() bool                  { return f.connected }
func (f *fakeAdapter) CheckConnectivity(ctx context.Context) bool { return f.reachable }
func (f *fakeAdapter) ConnectionInfo() protocol.ConnectionInfo    { return protocol.ConnectionInfo{} }

func (f *fakeAdapter) SendCommand(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	if f.nextErr != nil {
		return "", f.nextErr
	}
	return "output for " + cmd, nil
}

func (f *fakeAdapter) SendCommands(ctx context.Context, cmds []string, timeout time.Duration) (map[string]string, error) {
	if f.nextErr != nil {
		return nil, f.nextErr
	}
	out := map[string]string{}
	for _, c := range cmds {
		out[c] = "ok"
	}
	return out, nil
}

func (f *fakeAdapter) GetConfig(ctx context.Context, kind protocol.ConfigKind) (string, error) {
	if f.nextErr != nil {
		return "", f.nextErr
	}
	return f.config, nil
}

type fakeFactory struct {
	adapter *fakeAdapter
}

func (f *fakeFactory) Create(protoName, host string, creds protocol.Credentials, deviceType string, port int) (protocol.Adapter, error) {
	return f.adapter, nil
}

func newTestFacade(adapter *fakeAdapter) *Facade {
	p := pool.NewWithAdapterFactory(pool.Config{}, &fakeFactory{adapter: adapter}, distlock.NewNoop())
	comm := devicecomm.New(p)
	return NewFacade(comm, catalogue.New())
}

func TestFacade_ConnectSucceeds(t *testing.T) {
	ResetMetrics()
	adapter := &fakeAdapter{reachable: true}
	facade := newTestFacade(adapter)

	resp := facade.Connect(context.Background(), devicecomm.Request{Protocol: "ssh", Host: "r1"})
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "r1", resp.Data["host"])
}

func TestFacade_ExecuteCommandReturnsErrorResponseOnFailure(t *testing.T) {
	ResetMetrics()
	adapter := &fakeAdapter{nextErr: assert.AnError}
	facade := newTestFacade(adapter)

	resp := facade.ExecuteCommand(context.Background(), devicecomm.Request{Protocol: "ssh", Host: "r1"}, "show version")
	assert.Equal(t, "error", resp.Status)
	assert.NotEmpty(t, resp.Message)
}

func TestFacade_ExecuteBackupReportsConfigSize(t *testing.T) {
	ResetMetrics()
	adapter := &fakeAdapter{config: "interface Gi0/1\nno shutdown\n"}
	facade := newTestFacade(adapter)

	resp := facade.ExecuteBackup(context.Background(), devicecomm.Request{Protocol: "ssh", Host: "r1"})
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, len(adapter.config), resp.Data["config_size"])
}

func TestFacade_CheckReachabilityNeverErrors(t *testing.T) {
	ResetMetrics()
	adapter := &fakeAdapter{reachable: false}
	facade := newTestFacade(adapter)

	resp := facade.CheckReachability(context.Background(), devicecomm.Request{Protocol: "ssh", Host: "r1"})
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, false, resp.Data["reachable"])
}

func TestMetricsHandler_ServesPrometheusExposition(t *testing.T) {
	ResetMetrics()
	handler := MetricsHandler()
	assert.NotNil(t, handler)
}
