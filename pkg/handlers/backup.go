package handlers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/netraven-io/netraven/pkg/catalogue"
	"github.com/netraven-io/netraven/pkg/devicecomm"
	"github.com/netraven-io/netraven/pkg/logging"
	"github.com/netraven-io/netraven/pkg/scheduler"
)

// BackupHandler is the built-in "backup" TaskHandler. It
// consults the capability catalogue to build the device's command
// sequence, borrows an SSH session via the device communication facade,
// runs the sequence, parses identifying capabilities from the version
// output, and optionally issues the vendor save command to persist the
// running config.
type BackupHandler struct {
	Catalogue *catalogue.Catalogue
	Comm      *devicecomm.Service
}

// NewBackupHandler constructs a BackupHandler.
func NewBackupHandler(cat *catalogue.Catalogue, comm *devicecomm.Service) *BackupHandler {
	return &BackupHandler{Catalogue: cat, Comm: comm}
}

// Execute implements scheduler.TaskHandler.
func (h *BackupHandler) Execute(ctx context.Context, job *scheduler.Job) (scheduler.Result, error) {
	params, err := ParseBackupParams(job.Definition.Parameters)
	if err != nil {
		return scheduler.Result{}, err
	}

	log := logging.WithJob(job.ID).WithFields(logrus.Fields{
		"device_id": params.DeviceID,
		"host":      params.Host,
	})
	log.Info("backup: starting")

	req := devicecomm.Request{
		Protocol:    "ssh",
		Host:        params.Host,
		Credentials: credentials(params.Username, params.Password),
		DeviceType:  params.DeviceType,
		Port:        params.Port,
		DeviceID:    params.DeviceID,
	}

	sequence := h.Catalogue.CommandSequence(params.DeviceType)
	cmds := make([]string, len(sequence))
	for i, step := range sequence {
		cmds[i] = step.Command
	}

	outputs, err := h.Comm.ExecuteCommands(ctx, req, cmds)
	if err != nil {
		log.Warnf("backup: command sequence failed: %v", err)
		return scheduler.Result{}, err
	}

	versionCmd := h.Catalogue.Command(params.DeviceType, catalogue.CmdShowVersion)
	caps := h.Catalogue.ParseCapabilities(params.DeviceType, outputs[versionCmd])

	runningCmd := h.Catalogue.Command(params.DeviceType, catalogue.CmdShowRunning)
	runningConfig := outputs[runningCmd]

	if label, severity, found := h.Catalogue.DetectErrorSeverity(params.DeviceType, runningConfig); found && severity == catalogue.SeverityFatal {
		return scheduler.Result{
			Success: false,
			Message: fmt.Sprintf("vendor error detected in running-config output: %s", label),
			Data: map[string]any{
				"device_id": params.DeviceID,
				"host":      params.Host,
			},
		}, nil
	}

	configSaved := false
	if params.SaveConfig {
		saveCmd := h.Catalogue.Command(params.DeviceType, catalogue.CmdSaveConfig)
		if _, err := h.Comm.ExecuteCommand(ctx, req, saveCmd); err == nil {
			configSaved = true
		} else {
			log.Warnf("backup: save_config requested but %q failed: %v", saveCmd, err)
		}
	}

	log.Infof("backup: completed, %d bytes of running-config", len(runningConfig))

	return scheduler.Result{
		Success: true,
		Message: "backup completed",
		Data: map[string]any{
			"device_id":    params.DeviceID,
			"host":         params.Host,
			"config_saved": configSaved,
			"config_size":  len(runningConfig),
			"model":        caps.Model,
			"version":      caps.Version,
			"serial":       caps.Serial,
			"running_config": runningConfig,
		},
	}, nil
}
