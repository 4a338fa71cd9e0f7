package handlers

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
	"github.com/netraven-io/netraven/pkg/scheduler"
)

// fakeAdapter returns canned output per command, so a handler test can
// stage a realistic show_version/show_running response without a real
// device session.
type fakeAdapter struct {
	connected bool
	outputs   map[string]string
	configs   map[protocol.ConfigKind]string
}

func (f *fakeAdapter) Connect(ctx context.Context) error  { f.connected = true; return nil }
func (f *fakeAdapter) Disconnect() error                  { f.connected = false; return nil }
func (f *fakeAdapter) IsConnected() bool                  { return f.connected }
func (f *fakeAdapter) CheckConnectivity(ctx context.Context) bool { return true }
func (f *fakeAdapter) ConnectionInfo() protocol.ConnectionInfo    { return protocol.ConnectionInfo{} }

func (f *fakeAdapter) SendCommand(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	return f.outputs[cmd], nil
}

func (f *fakeAdapter) SendCommands(ctx context.Context, cmds []string, timeout time.Duration) (map[string]string, error) {
	out := map[string]string{}
	for _, c := range cmds {
		out[c] = f.outputs[c]
	}
	return out, nil
}

func (f *fakeAdapter) GetConfig(ctx context.Context, kind protocol.ConfigKind) (string, error) {
	return f.configs[kind], nil
}

type fakeFactory struct {
	adapter *fakeAdapter
}

func (f *fakeFactory) Create(protoName, host string, creds protocol.Credentials, deviceType string, port int) (protocol.Adapter, error) {
	return f.adapter, nil
}

func newTestComm(adapter *fakeAdapter) *devicecomm.Service {
	p := pool.NewWithAdapterFactory(pool.Config{}, &fakeFactory{adapter: adapter}, distlock.NewNoop())
	return devicecomm.New(p)
}

func jobFor(t *testing.T, jobType string, params map[string]any) *scheduler.Job {
	t.Helper()
	def, err := scheduler.NewJobDefinition(jobType, scheduler.ScheduleImmediate, scheduler.PriorityNormal, params)
	require.NoError(t, err)
	return scheduler.NewJob(def)
}

func TestBackupHandler_SuccessfulRunReturnsParsedCapabilities(t *testing.T) {
	adapter := &fakeAdapter{
		outputs: map[string]string{
			"show version":         "Cisco IOS Software, Version 15.2(4)M, Processor board ID ABC123",
			"show running-config":  "interface Gi0/1\nno shutdown\n",
			"terminal length 0":    "",
			"enable":               "",
		},
		configs: map[protocol.ConfigKind]string{},
	}
	comm := newTestComm(adapter)
	handler := NewBackupHandler(catalogue.New(), comm)

	job := jobFor(t, "backup", map[string]any{
		"device_id":   "dev1",
		"host":        "r1",
		"username":    "admin",
		"password":    "secret",
		"device_type": "cisco_ios",
	})

	result, err := handler.Execute(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "15.2(4)M", result.Data["version"])
	assert.Equal(t, "ABC123", result.Data["serial"])
}

func TestBackupHandler_FatalVendorErrorInRunningConfigFailsTheJob(t *testing.T) {
	adapter := &fakeAdapter{
		outputs: map[string]string{
			"show version":        "Cisco IOS Software, Version 15.2(4)M",
			"show running-config": "% Invalid input detected",
			"terminal length 0":   "",
			"enable":              "",
		},
	}
	comm := newTestComm(adapter)
	handler := NewBackupHandler(catalogue.New(), comm)

	job := jobFor(t, "backup", map[string]any{
		"device_id":   "dev1",
		"host":        "r1",
		"username":    "admin",
		"password":    "secret",
		"device_type": "cisco_ios",
	})

	result, err := handler.Execute(context.Background(), job)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestBackupHandler_InvalidParametersReturnError(t *testing.T) {
	comm := newTestComm(&fakeAdapter{})
	handler := NewBackupHandler(catalogue.New(), comm)

	job := jobFor(t, "backup", map[string]any{"host": "r1"})
	_, err := handler.Execute(context.Background(), job)
	assert.Error(t, err)
}
