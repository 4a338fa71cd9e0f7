package protocol

import (
	"strings"

	"github.com/netraven-io/netraven/pkg/catalogue"
	"github.com/netraven-io/netraven/pkg/deviceerr"
)

// Factory creates protocol adapters by name. A single Factory is shared
// across the connection pool so every adapter it builds sees the same
// capability catalogue.
type Factory struct {
	catalogue *catalogue.Catalogue
}

// NewFactory builds a Factory bound to a capability catalogue.
func NewFactory(cat *catalogue.Catalogue) *Factory {
	return &Factory{catalogue: cat}
}

// Create builds an adapter for protocol (case-insensitive), host, and
// credentials. A protocol outside ssh/telnet/rest fails with
// PARAMETER_INVALID.
func (f *Factory) Create(protoName, host string, creds Credentials, deviceType string, port int) (Adapter, error) {
	switch strings.ToLower(protoName) {
	case "ssh":
		return NewSSHAdapter(host, port, deviceType, creds, f.catalogue), nil
	case "telnet":
		return NewTelnetAdapter(host, port, deviceType, creds, f.catalogue), nil
	case "rest":
		return NewRESTAdapter(host, port, deviceType, creds), nil
	default:
		return nil, deviceerr.New(deviceerr.KindParameterInvalid, "unsupported protocol: "+protoName).WithHost(host)
	}
}
