package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netraven-io/netraven/pkg/catalogue"
	"github.com/netraven-io/netraven/pkg/deviceerr"
)

func TestFactory_CreateIsCaseInsensitive(t *testing.T) {
	f := NewFactory(catalogue.New())

	for _, proto := range []string{"ssh", "SSH", "Telnet", "REST"} {
		adapter, err := f.Create(proto, "r1", Credentials{Username: "admin"}, "cisco_ios", 0)
		require.NoErrorf(t, err, "protocol %q", proto)
		assert.False(t, adapter.IsConnected())
	}
}

func TestFactory_CreateRejectsUnknownProtocol(t *testing.T) {
	f := NewFactory(catalogue.New())

	_, err := f.Create("snmp", "r1", Credentials{}, "", 0)
	require.Error(t, err)
	de, ok := deviceerr.AsDeviceError(err)
	require.True(t, ok)
	assert.Equal(t, deviceerr.KindParameterInvalid, de.Kind)
}

func TestDefaultPorts(t *testing.T) {
	assert.Equal(t, 22, DefaultPort("ssh"))
	assert.Equal(t, 23, DefaultPort("telnet"))
	assert.Equal(t, 443, DefaultPort("rest"))
	assert.Equal(t, 0, DefaultPort("unknown"))
}

func TestConnectionKey_DefaultsPortFromProtocol(t *testing.T) {
	key := NewConnectionKey("ssh", "r1", 0, "admin", "dev1")
	assert.Equal(t, 22, key.Port)

	explicit := NewConnectionKey("ssh", "r1", 2222, "admin", "dev1")
	assert.Equal(t, 2222, explicit.Port)

	assert.NotEqual(t, key, explicit)
}
