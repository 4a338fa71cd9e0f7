// Package devicecomm implements the Device Communication Service: a thin
// facade offering scoped acquisition of a pooled protocol session with
// guaranteed release on every exit path. Each operation borrows from the
// shared connection pool, executes, and returns the adapter rather than
// dialing fresh per call.
package devicecomm

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/netraven-io/netraven/pkg/deviceerr"
	"github.com/netraven-io/netraven/pkg/logging"
	"github.com/netraven-io/netraven/pkg/pool"
	"github.com/netraven-io/netraven/pkg/protocol"
)

// Request names every field a Service call needs. DeviceType, Port,
// DeviceID, SessionID, and Timeout are all optional; zero values fall
// back to protocol and catalogue defaults, and a zero Timeout to the
// adapter's fixed 30s.
type Request struct {
	Protocol    string
	Host        string
	Credentials protocol.Credentials
	DeviceType  string
	Port        int
	DeviceID    string
	SessionID   string
	Timeout     time.Duration
}

// withSessionID returns a copy of req with SessionID populated if it was
// empty, so every operation is traceable even when the caller supplied
// none.
func (r Request) withSessionID() Request {
	if r.SessionID == "" {
		r.SessionID = uuid.NewString()
	}
	return r
}

func (r Request) borrowParams() pool.BorrowParams {
	return pool.BorrowParams{
		Protocol:    r.Protocol,
		Host:        r.Host,
		Credentials: r.Credentials,
		DeviceType:  r.DeviceType,
		Port:        r.Port,
		DeviceID:    r.DeviceID,
	}
}

// Service borrows an adapter from the connection pool, performs one
// operation, and always returns the adapter to the pool, flagging it as
// failed first when the operation errored. A borrow that fails partway
// never reaches the Service: Pool.Borrow disconnects an adapter whose
// Connect failed before returning the error.
type Service struct {
	pool *pool.Pool
}

// New constructs a Service bound to the process-wide connection pool.
func New(p *pool.Pool) *Service {
	return &Service{pool: p}
}

// borrow acquires an adapter for req. A pool failure that is not already
// classified surfaces as CONNECTION_ERROR; a NETWORK_ERROR (device not
// reachable) is surfaced as CONNECTION_ERROR the same way.
func (s *Service) borrow(ctx context.Context, req Request) (protocol.Adapter, error) {
	adapter, err := s.pool.Borrow(ctx, req.borrowParams())
	if err != nil {
		if de, ok := deviceerr.AsDeviceError(err); ok && de.Kind != deviceerr.KindNetwork {
			return nil, de
		}
		return nil, deviceerr.Wrap(deviceerr.KindConnection, "borrowing device session", err).
			WithHost(req.Host).WithDeviceID(req.DeviceID)
	}
	return adapter, nil
}

// release always returns the adapter to the pool on a successful
// operation, or reports the failure and returns it anyway so the pool's
// own liveness/failure-count bookkeeping can evict it later.
func (s *Service) release(adapter protocol.Adapter, opErr error) {
	if opErr != nil {
		s.pool.ReportFailure(adapter)
	}
	s.pool.Return(adapter)
}

// ExecuteCommand borrows a session, runs a single command, and returns
// it. Any adapter error is translated to a deviceerr.DeviceError carrying
// the original cause.
func (s *Service) ExecuteCommand(ctx context.Context, req Request, cmd string) (string, error) {
	req = req.withSessionID()
	log := logging.WithSession(req.SessionID).WithField("host", req.Host)

	adapter, err := s.borrow(ctx, req)
	if err != nil {
		log.Warnf("execute_command: borrow failed: %v", err)
		return "", err
	}

	output, err := adapter.SendCommand(ctx, cmd, req.Timeout)
	s.release(adapter, err)
	if err != nil {
		return "", translateCommandError(err, req, cmd)
	}
	return output, nil
}

// ExecuteCommands borrows a session, runs a batch of commands in order,
// and returns it.
func (s *Service) ExecuteCommands(ctx context.Context, req Request, cmds []string) (map[string]string, error) {
	req = req.withSessionID()

	adapter, err := s.borrow(ctx, req)
	if err != nil {
		return nil, err
	}

	outputs, err := adapter.SendCommands(ctx, cmds, req.Timeout)
	s.release(adapter, err)
	if err != nil {
		return outputs, translateCommandError(err, req, cmds...)
	}
	return outputs, nil
}

// GetConfig borrows a session, retrieves the requested configuration
// store, and returns it.
func (s *Service) GetConfig(ctx context.Context, req Request, kind protocol.ConfigKind) (string, error) {
	req = req.withSessionID()

	adapter, err := s.borrow(ctx, req)
	if err != nil {
		return "", err
	}

	cfg, err := adapter.GetConfig(ctx, kind)
	s.release(adapter, err)
	if err != nil {
		return "", translateCommandError(err, req, string(kind))
	}
	return cfg, nil
}

// CheckConnectivity borrows a session and performs a TCP probe. It never
// returns an error: a failed borrow reports unreachable instead of
// propagating.
func (s *Service) CheckConnectivity(ctx context.Context, req Request) bool {
	req = req.withSessionID()

	adapter, err := s.borrow(ctx, req)
	if err != nil {
		return false
	}
	ok := adapter.CheckConnectivity(ctx)
	s.release(adapter, nil)
	return ok
}

// translateCommandError wraps an unexpected adapter error in
// COMMAND_ERROR with the original cause chained, preserving the
// deviceerr.Kind when the adapter already classified it.
func translateCommandError(err error, req Request, commands ...string) error {
	if de, ok := deviceerr.AsDeviceError(err); ok {
		if de.Host == "" {
			de.WithHost(req.Host)
		}
		if de.SessionID == "" {
			de.WithSessionID(req.SessionID)
		}
		return de
	}
	return deviceerr.Wrap(deviceerr.KindCommand, "device command execution failed", err).
		WithHost(req.Host).WithDeviceID(req.DeviceID).WithSessionID(req.SessionID).WithCommands(commands...)
}
