package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/netraven-io/netraven/pkg/catalogue"
	"github.com/netraven-io/netraven/pkg/devicecomm"
	"github.com/netraven-io/netraven/pkg/logging"
	"github.com/netraven-io/netraven/pkg/scheduler"
)

// CommandHandler is the built-in "command_execution" TaskHandler. It
// runs a single caller-supplied command against the device and reports
// the raw output.
type CommandHandler struct {
	Catalogue *catalogue.Catalogue
	Comm      *devicecomm.Service
}

// NewCommandHandler constructs a CommandHandler.
func NewCommandHandler(cat *catalogue.Catalogue, comm *devicecomm.Service) *CommandHandler {
	return &CommandHandler{Catalogue: cat, Comm: comm}
}

// Execute implements scheduler.TaskHandler.
func (h *CommandHandler) Execute(ctx context.Context, job *scheduler.Job) (scheduler.Result, error) {
	params, err := ParseCommandParams(job.Definition.Parameters)
	if err != nil {
		return scheduler.Result{}, err
	}

	log := logging.WithJob(job.ID).WithFields(logrus.Fields{
		"device_id": params.DeviceID,
		"host":      params.Host,
	})
	log.Infof("command_execution: running %q", params.Command)

	req := devicecomm.Request{
		Protocol:    "ssh",
		Host:        params.Host,
		Credentials: credentials(params.Username, params.Password),
		DeviceType:  params.DeviceType,
		Port:        params.Port,
		DeviceID:    params.DeviceID,
	}

	output, err := h.Comm.ExecuteCommand(ctx, req, params.Command)
	if err != nil {
		log.Warnf("command_execution: failed: %v", err)
		return scheduler.Result{}, err
	}

	exitCode := 0
	message := "command executed"
	if label, ok := h.Catalogue.DetectError(params.DeviceType, output); ok {
		exitCode = 1
		message = label
	}

	return scheduler.Result{
		Success: exitCode == 0,
		Message: message,
		Data: map[string]any{
			"device_id": params.DeviceID,
			"host":      params.Host,
			"command":   params.Command,
			"output":    output,
			"exit_code": exitCode,
		},
	}, nil
}
