// Package catalogue is the vendor capability catalogue: a purely
// data-driven, I/O-free component mapping a device type to its command
// table, per-command timeouts, static capability flags, the canonical
// backup command sequence, version-output parsing rules, and vendor
// error patterns. Adding a new device family is a pure-data change.
package catalogue

import "sort"

// CommandKey is a logical command identifier, vendor-independent.
type CommandKey string

const (
	CmdShowRunning   CommandKey = "show_running"
	CmdShowVersion   CommandKey = "show_version"
	CmdSaveConfig    CommandKey = "save_config"
	CmdEnablePaging  CommandKey = "enable_paging"
	CmdShowInventory CommandKey = "show_inventory"
	CmdEnterEnable   CommandKey = "enter_enable"
	CmdEnterCLI      CommandKey = "enter_cli"
)

// DefaultDeviceType is the fallback profile used when a device type is
// unknown or unset.
const DefaultDeviceType = "default"

// defaultCommandTimeout is the fallback duration, in seconds, for any
// command key without an explicit per-command timeout entry.
const defaultCommandTimeout = 30

// StaticCapabilities are the boolean vendor-family traits that drive
// command-sequence construction.
type StaticCapabilities struct {
	RequiresEnable        bool
	SupportsPagingControl bool
	SupportsInventory     bool
	SupportsConfigReplace bool
	SupportsFileTransfer  bool
	RequiresCLIMode       bool
}

// ErrorPattern is one vendor error signature: a literal substring (see
// DetectError) to scan command output for, paired with a human label
// and a severity classification used by task handlers to decide whether a
// match should be treated as a hard syntax failure or a soft warning.
type ErrorPattern struct {
	Pattern  string
	Label    string
	Severity Severity
}

// Severity classifies how serious a detected vendor error is.
type Severity string

const (
	SeverityFatal Severity = "fatal"
	SeverityWarn  Severity = "warning"
)

// ParseRule extracts one named field (model, version, serial, hardware)
// from version-command output via a regular expression with exactly one
// capture group.
type ParseRule struct {
	Field   string
	Pattern string
}

// Profile is the complete per-vendor knowledge the catalogue holds.
type Profile struct {
	DeviceType    string
	Commands      map[CommandKey]string
	Timeouts      map[CommandKey]int
	Capabilities  StaticCapabilities
	ErrorPatterns []ErrorPattern
	ParseRules    []ParseRule
	// PlatformSubtype, when non-empty, is reported verbatim by
	// ParseCapabilities as the platform_subtype unless a more specific
	// subtype detector overrides it (see parse.go).
	PlatformSubtype string
}

// Catalogue holds every registered vendor Profile plus the default
// fallback profile. It is safe for concurrent read-only use once built;
// it is never mutated after construction in normal operation.
type Catalogue struct {
	profiles map[string]*Profile
}

// New builds the catalogue with the initial supported vendor set plus
// the default profile.
func New() *Catalogue {
	c := &Catalogue{profiles: map[string]*Profile{}}
	for _, p := range builtinProfiles() {
		c.profiles[p.DeviceType] = p
	}
	return c
}

func (c *Catalogue) profile(deviceType string) *Profile {
	if deviceType != "" {
		if p, ok := c.profiles[deviceType]; ok {
			return p
		}
	}
	return c.profiles[DefaultDeviceType]
}

// CommandsFor returns the full command table for a device type, falling
// back to the default profile for any key the vendor profile omits.
func (c *Catalogue) CommandsFor(deviceType string) map[CommandKey]string {
	p := c.profile(deviceType)
	def := c.profiles[DefaultDeviceType]
	out := make(map[CommandKey]string, len(def.Commands))
	for k, v := range def.Commands {
		out[k] = v
	}
	for k, v := range p.Commands {
		out[k] = v
	}
	return out
}

// Command returns a single command string, falling back to the default
// profile when the vendor profile has no entry for key.
func (c *Catalogue) Command(deviceType string, key CommandKey) string {
	p := c.profile(deviceType)
	if v, ok := p.Commands[key]; ok {
		return v
	}
	return c.profiles[DefaultDeviceType].Commands[key]
}

// TimeoutFor returns the per-command timeout in seconds, falling back to
// 30s when neither the vendor profile nor the default profile declares one.
func (c *Catalogue) TimeoutFor(deviceType string, key CommandKey) int {
	p := c.profile(deviceType)
	if v, ok := p.Timeouts[key]; ok {
		return v
	}
	if v, ok := c.profiles[DefaultDeviceType].Timeouts[key]; ok {
		return v
	}
	return defaultCommandTimeout
}

// StaticCapabilitiesFor returns the vendor family's capability flags.
func (c *Catalogue) StaticCapabilitiesFor(deviceType string) StaticCapabilities {
	return c.profile(deviceType).Capabilities
}

// SequenceStep is one entry in a command_sequence: a logical key paired
// with its resolved wire command.
type SequenceStep struct {
	Key     CommandKey
	Command string
}

// CommandSequence returns the canonical ordered backup sequence for a
// device type:
//  1. enter_cli       if requires_cli_mode
//  2. enter_enable    if requires_enable
//  3. enable_paging   if supports_paging_control
//  4. show_version
//  5. show_inventory  if supports_inventory
//  6. show_running
func (c *Catalogue) CommandSequence(deviceType string) []SequenceStep {
	caps := c.StaticCapabilitiesFor(deviceType)
	var seq []SequenceStep
	add := func(k CommandKey) {
		seq = append(seq, SequenceStep{Key: k, Command: c.Command(deviceType, k)})
	}
	if caps.RequiresCLIMode {
		add(CmdEnterCLI)
	}
	if caps.RequiresEnable {
		add(CmdEnterEnable)
	}
	if caps.SupportsPagingControl {
		add(CmdEnablePaging)
	}
	add(CmdShowVersion)
	if caps.SupportsInventory {
		add(CmdShowInventory)
	}
	add(CmdShowRunning)
	return seq
}

// SupportedDeviceTypes returns every registered device type, sorted, for
// diagnostics and tests.
func (c *Catalogue) SupportedDeviceTypes() []string {
	out := make([]string, 0, len(c.profiles))
	for k := range c.profiles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
