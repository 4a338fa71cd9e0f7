package catalogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandSequence_RequiresEnableBeforeShowRunning(t *testing.T) {
	c := New()
	for _, dt := range c.SupportedDeviceTypes() {
		caps := c.StaticCapabilitiesFor(dt)
		if !caps.RequiresEnable {
			continue
		}
		seq := c.CommandSequence(dt)
		enableIdx, runningIdx := -1, -1
		for i, step := range seq {
			if step.Key == CmdEnterEnable {
				enableIdx = i
			}
			if step.Key == CmdShowRunning {
				runningIdx = i
			}
		}
		require.GreaterOrEqualf(t, enableIdx, 0, "device %s requires enable but sequence has no enter_enable step", dt)
		assert.Lessf(t, enableIdx, runningIdx, "device %s: enter_enable must precede show_running", dt)
	}
}

func TestCommandSequence_CiscoIOSOrdering(t *testing.T) {
	c := New()
	seq := c.CommandSequence("cisco_ios")
	keys := make([]CommandKey, len(seq))
	for i, s := range seq {
		keys[i] = s.Key
	}
	assert.Equal(t, []CommandKey{
		CmdEnterEnable,
		CmdEnablePaging,
		CmdShowVersion,
		CmdShowInventory,
		CmdShowRunning,
	}, keys)
}

func TestCommandSequence_JunosRequiresCLIModeFirst(t *testing.T) {
	c := New()
	seq := c.CommandSequence("juniper_junos")
	require.NotEmpty(t, seq)
	assert.Equal(t, CmdEnterCLI, seq[0].Key)
}

func TestTimeoutFor_FallsBackTo30Seconds(t *testing.T) {
	c := New()
	assert.Equal(t, 30, c.TimeoutFor("cisco_ios", CmdEnterEnable))
	assert.Equal(t, 60, c.TimeoutFor("cisco_ios", CmdShowRunning))
	assert.Equal(t, 30, c.TimeoutFor("unknown_vendor", CmdShowVersion))
}

func TestCommand_FallsBackToDefaultProfile(t *testing.T) {
	c := New()
	assert.Equal(t, "show version", c.Command("totally_unknown", CmdShowVersion))
}

func TestDetectError_CiscoIOS(t *testing.T) {
	c := New()
	label, found := c.DetectError("cisco_ios", "% Invalid input detected")
	assert.True(t, found)
	assert.Equal(t, "Invalid command syntax", label)

	_, found = c.DetectError("cisco_ios", "Switch#show version")
	assert.False(t, found)
}

func TestDetectError_EmptyAndNilOutput(t *testing.T) {
	c := New()
	_, found := c.DetectError("cisco_ios", "")
	assert.False(t, found)

	var nilStr string
	_, found = c.DetectError("cisco_ios", nilStr)
	assert.False(t, found)
}

func TestParseCapabilities_CiscoIOS(t *testing.T) {
	c := New()
	output := "cisco WS-C3560-24PS (PowerPC405) processor board, " +
		"Cisco IOS Software, C3560 Software, Version 12.2(55)SE, RELEASE SOFTWARE (fc1)\n" +
		"Processor board ID CAT1033Z1VY\n" +
		"Model number : WS-C3560-24PS-S\nIOS"

	caps := c.ParseCapabilities("cisco_ios", output)
	assert.Equal(t, "WS-C3560-24PS", caps.Model)
	assert.Equal(t, "12.2(55)SE", caps.Version)
	assert.Equal(t, "CAT1033Z1VY", caps.Serial)
	assert.Equal(t, "ios", caps.PlatformSubtype)
}

func TestParseCapabilities_CiscoIOSXE(t *testing.T) {
	c := New()
	output := "cisco C9300-24P (PowerPC) processor, Version 17.3.4, IOS-XE Software"
	caps := c.ParseCapabilities("cisco_ios", output)
	assert.Equal(t, "iosxe", caps.PlatformSubtype)
}

func TestSupportedDeviceTypesIncludesDefault(t *testing.T) {
	c := New()
	assert.Contains(t, c.SupportedDeviceTypes(), DefaultDeviceType)
	assert.Contains(t, c.SupportedDeviceTypes(), "cisco_ios")
	assert.Contains(t, c.SupportedDeviceTypes(), "f5_tmsh")
}
