package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netraven-io/netraven/pkg/catalogue"
)

func TestCommandHandler_SuccessfulCommandReturnsOutput(t *testing.T) {
	adapter := &fakeAdapter{outputs: map[string]string{"show version": "Cisco IOS Software, Version 15.2(4)M"}}
	comm := newTestComm(adapter)
	handler := NewCommandHandler(catalogue.New(), comm)

	job := jobFor(t, "command_execution", map[string]any{
		"device_id": "dev1",
		"host":      "r1",
		"username":  "admin",
		"password":  "secret",
		"command":   "show version",
	})

	result, err := handler.Execute(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Data["exit_code"])
	assert.Equal(t, "Cisco IOS Software, Version 15.2(4)M", result.Data["output"])
}

func TestCommandHandler_VendorErrorOutputSetsNonZeroExitCode(t *testing.T) {
	adapter := &fakeAdapter{outputs: map[string]string{"bad command": "% Invalid input detected"}}
	comm := newTestComm(adapter)
	handler := NewCommandHandler(catalogue.New(), comm)

	job := jobFor(t, "command_execution", map[string]any{
		"device_id": "dev1",
		"host":      "r1",
		"username":  "admin",
		"password":  "secret",
		"command":   "bad command",
	})

	result, err := handler.Execute(context.Background(), job)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Data["exit_code"])
}

func TestCommandHandler_InvalidParametersReturnError(t *testing.T) {
	comm := newTestComm(&fakeAdapter{})
	handler := NewCommandHandler(catalogue.New(), comm)

	job := jobFor(t, "command_execution", map[string]any{"host": "r1"})
	_, err := handler.Execute(context.Background(), job)
	assert.Error(t, err)
}
