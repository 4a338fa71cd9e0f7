package gateway

import (
	"context"
	"time"

	"github.com/netraven-io/netraven/pkg/catalogue"
	"github.com/netraven-io/netraven/pkg/deviceerr"
	"github.com/netraven-io/netraven/pkg/devicecomm"
	"github.com/netraven-io/netraven/pkg/logging"
	"github.com/netraven-io/netraven/pkg/protocol"
)

// Response is the uniform request-level shape the gateway returns: a
// success/error envelope over caller-facing data. Recoverable and fatal
// failures alike map to status "error" with a message and no data.
type Response struct {
	Status  string
	Message string
	Data    map[string]any
}

func ok(data map[string]any) Response {
	return Response{Status: "ok", Data: data}
}

func errResponse(message string) Response {
	return Response{Status: "error", Message: message}
}

// Facade fronts the Device Communication Service for external callers,
// recording per-request metrics and session-scoped structured logs
// around each operation. Caller authentication happens upstream (see
// package doc).
type Facade struct {
	comm      *devicecomm.Service
	catalogue *catalogue.Catalogue
}

// NewFacade constructs a Facade bound to the device communication
// service and capability catalogue.
func NewFacade(comm *devicecomm.Service, cat *catalogue.Catalogue) *Facade {
	return &Facade{comm: comm, catalogue: cat}
}

// Connect borrows (and implicitly verifies) a session for the given
// device, used by callers that just want to confirm a session can be
// established before scheduling further work.
func (f *Facade) Connect(ctx context.Context, req devicecomm.Request) Response {
	start := time.Now()
	log := logging.WithHost(req.Host).WithField("session_id", req.SessionID)
	log.Info("gateway: connect request")

	_, err := f.comm.ExecuteCommand(ctx, req, f.catalogue.Command(req.DeviceType, catalogue.CmdShowVersion))
	observeRequest("connect", start, err, errKind(err))
	if err != nil {
		return errResponse(err.Error())
	}
	incConnection(req.Protocol)
	return ok(map[string]any{"host": req.Host, "connected": true})
}

// ExecuteCommand runs one command against a device and reports its
// output.
func (f *Facade) ExecuteCommand(ctx context.Context, req devicecomm.Request, cmd string) Response {
	start := time.Now()
	log := logging.WithHost(req.Host).WithField("session_id", req.SessionID)
	log.Infof("gateway: execute_command %q", cmd)

	opStart := time.Now()
	output, err := f.comm.ExecuteCommand(ctx, req, cmd)
	observeOperation("execute_command", opStart)
	observeRequest("execute_command", start, err, errKind(err))
	if err != nil {
		log.Warnf("gateway: execute_command failed: %v", err)
		return errResponse(err.Error())
	}
	incCommand(req.Protocol)
	return ok(map[string]any{"host": req.Host, "command": cmd, "output": output})
}

// ExecuteBackup retrieves the running configuration and reports its size,
// recording the backup-size histogram.
func (f *Facade) ExecuteBackup(ctx context.Context, req devicecomm.Request) Response {
	start := time.Now()
	log := logging.WithHost(req.Host).WithField("session_id", req.SessionID)
	log.Info("gateway: backup request")

	opStart := time.Now()
	cfg, err := f.comm.GetConfig(ctx, req, protocol.ConfigRunning)
	observeOperation("backup", opStart)
	observeRequest("backup", start, err, errKind(err))
	if err != nil {
		incBackup("error", 0)
		log.Warnf("gateway: backup failed: %v", err)
		return errResponse(err.Error())
	}
	incBackup("success", len(cfg))
	return ok(map[string]any{"host": req.Host, "config_size": len(cfg), "running_config": cfg})
}

// CheckReachability performs a TCP reachability probe and never returns
// an error response for the probe itself failing, only true/false data,
// mirroring the connectivity check's no-throw contract.
func (f *Facade) CheckReachability(ctx context.Context, req devicecomm.Request) Response {
	start := time.Now()
	reachable := f.comm.CheckConnectivity(ctx, req)
	observeRequest("check_reachability", start, nil, "")
	if reachable {
		incReachability("reachable")
	} else {
		incReachability("unreachable")
	}
	return ok(map[string]any{"host": req.Host, "reachable": reachable})
}

func errKind(err error) string {
	if err == nil {
		return ""
	}
	if de, ok := deviceerr.AsDeviceError(err); ok {
		return string(de.Kind)
	}
	return string(deviceerr.KindUnknown)
}
