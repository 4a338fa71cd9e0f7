package catalogue

// builtinProfiles returns the initial supported vendor set plus the
// default profile. Every profile is independent; CommandsFor and
// TimeoutFor layer a vendor profile over the default profile so a vendor
// only needs to declare what differs.
func builtinProfiles() []*Profile {
	return []*Profile{
		defaultProfile(),
		ciscoIOSProfile(),
		ciscoXRProfile(),
		ciscoNXOSProfile(),
		ciscoASAProfile(),
		aristaEOSProfile(),
		juniperJunosProfile(),
		paloAltoPanosProfile(),
		f5TmshProfile(),
	}
}

func defaultProfile() *Profile {
	return &Profile{
		DeviceType: DefaultDeviceType,
		Commands: map[CommandKey]string{
			CmdEnterEnable:   "enable",
			CmdEnablePaging:  "terminal length 0",
			CmdShowVersion:   "show version",
			CmdShowInventory: "show inventory",
			CmdShowRunning:   "show running-config",
			CmdSaveConfig:    "write memory",
		},
		Timeouts: map[CommandKey]int{
			CmdShowRunning: 60,
			CmdSaveConfig:  60,
		},
		Capabilities: StaticCapabilities{
			RequiresEnable:        true,
			SupportsPagingControl: true,
			SupportsInventory:     true,
			SupportsConfigReplace: false,
			SupportsFileTransfer:  false,
			RequiresCLIMode:       false,
		},
		ErrorPatterns: []ErrorPattern{
			{Pattern: "% Invalid input detected", Label: "Invalid command syntax", Severity: SeverityFatal},
			{Pattern: "% Incomplete command", Label: "Incomplete command", Severity: SeverityFatal},
			{Pattern: "Permission denied", Label: "Permission denied", Severity: SeverityFatal},
		},
		ParseRules: []ParseRule{
			{Field: "model", Pattern: `(?i)cisco\s+(\S+)\s`},
			{Field: "version", Pattern: `(?i)Version\s+([^\s,]+)`},
			{Field: "serial", Pattern: `(?i)Processor board ID\s+(\S+)`},
		},
	}
}

func ciscoIOSProfile() *Profile {
	return &Profile{
		DeviceType: "cisco_ios",
		Commands: map[CommandKey]string{
			CmdEnterEnable:   "enable",
			CmdEnablePaging:  "terminal length 0",
			CmdShowVersion:   "show version",
			CmdShowInventory: "show inventory",
			CmdShowRunning:   "show running-config",
			CmdSaveConfig:    "write memory",
		},
		Timeouts: map[CommandKey]int{
			CmdShowRunning: 60,
			CmdSaveConfig:  60,
		},
		Capabilities: StaticCapabilities{
			RequiresEnable:        true,
			SupportsPagingControl: true,
			SupportsInventory:     true,
			SupportsConfigReplace: false,
			SupportsFileTransfer:  true,
			RequiresCLIMode:       false,
		},
		ErrorPatterns: []ErrorPattern{
			{Pattern: "% Invalid input detected", Label: "Invalid command syntax", Severity: SeverityFatal},
			{Pattern: "% Incomplete command", Label: "Incomplete command", Severity: SeverityFatal},
			{Pattern: "% Ambiguous command", Label: "Ambiguous command", Severity: SeverityFatal},
			{Pattern: "Permission denied", Label: "Permission denied", Severity: SeverityFatal},
			{Pattern: "% Configuration file or flash image not found", Label: "Configuration not found", Severity: SeverityWarn},
		},
		ParseRules: []ParseRule{
			{Field: "model", Pattern: `(?i)cisco\s+(\S+)\s`},
			{Field: "version", Pattern: `(?i)Version\s+([^\s,]+)`},
			{Field: "serial", Pattern: `(?i)Processor board ID\s+(\S+)`},
			{Field: "hardware", Pattern: `(?i)cisco\s+\S+\s+\(([^)]+)\)`},
		},
	}
}

func ciscoXRProfile() *Profile {
	return &Profile{
		DeviceType: "cisco_xr",
		Commands: map[CommandKey]string{
			CmdEnablePaging:  "terminal length 0",
			CmdShowVersion:   "show version",
			CmdShowInventory: "show inventory",
			CmdShowRunning:   "show running-config",
			CmdSaveConfig:    "commit",
		},
		Timeouts: map[CommandKey]int{
			CmdShowRunning: 90,
			CmdSaveConfig:  60,
		},
		Capabilities: StaticCapabilities{
			RequiresEnable:        false,
			SupportsPagingControl: true,
			SupportsInventory:     true,
			SupportsConfigReplace: true,
			SupportsFileTransfer:  true,
			RequiresCLIMode:       false,
		},
		ErrorPatterns: []ErrorPattern{
			{Pattern: "% Invalid input detected", Label: "Invalid command syntax", Severity: SeverityFatal},
			{Pattern: "% No such configuration item", Label: "Unknown configuration item", Severity: SeverityFatal},
			{Pattern: "!! SYNTAX/AUTHORIZATION ERRORS", Label: "Syntax or authorization error", Severity: SeverityFatal},
		},
		ParseRules: []ParseRule{
			{Field: "model", Pattern: `(?i)cisco\s+(\S+)\s*\(revision`},
			{Field: "version", Pattern: `(?i)Version\s+([^\s,]+)`},
			{Field: "serial", Pattern: `(?i)[Ss]erial [Nn]umber\s*:?\s*(\S+)`},
		},
	}
}

func ciscoNXOSProfile() *Profile {
	return &Profile{
		DeviceType: "cisco_nxos",
		Commands: map[CommandKey]string{
			CmdEnablePaging:  "terminal length 0",
			CmdShowVersion:   "show version",
			CmdShowInventory: "show inventory",
			CmdShowRunning:   "show running-config",
			CmdSaveConfig:    "copy running-config startup-config",
		},
		Timeouts: map[CommandKey]int{
			CmdShowRunning: 60,
			CmdSaveConfig:  60,
		},
		Capabilities: StaticCapabilities{
			RequiresEnable:        false,
			SupportsPagingControl: true,
			SupportsInventory:     true,
			SupportsConfigReplace: false,
			SupportsFileTransfer:  true,
			RequiresCLIMode:       false,
		},
		ErrorPatterns: []ErrorPattern{
			{Pattern: "% Invalid command", Label: "Invalid command syntax", Severity: SeverityFatal},
			{Pattern: "% Incomplete command", Label: "Incomplete command", Severity: SeverityFatal},
		},
		ParseRules: []ParseRule{
			{Field: "model", Pattern: `(?i)cisco\s+(Nexus\S*\s?\S*)\s*Chassis`},
			{Field: "version", Pattern: `(?i)system:\s*version\s+(\S+)`},
			{Field: "serial", Pattern: `(?i)[Pp]rocessor [Bb]oard ID\s+(\S+)`},
		},
	}
}

func ciscoASAProfile() *Profile {
	return &Profile{
		DeviceType: "cisco_asa",
		Commands: map[CommandKey]string{
			CmdEnterEnable:   "enable",
			CmdEnablePaging:  "terminal pager 0",
			CmdShowVersion:   "show version",
			CmdShowInventory: "show inventory",
			CmdShowRunning:   "show running-config",
			CmdSaveConfig:    "write memory",
		},
		Timeouts: map[CommandKey]int{
			CmdShowRunning: 60,
			CmdSaveConfig:  60,
		},
		Capabilities: StaticCapabilities{
			RequiresEnable:        true,
			SupportsPagingControl: true,
			SupportsInventory:     true,
			SupportsConfigReplace: false,
			SupportsFileTransfer:  false,
			RequiresCLIMode:       false,
		},
		ErrorPatterns: []ErrorPattern{
			{Pattern: "ERROR: % Invalid input detected", Label: "Invalid command syntax", Severity: SeverityFatal},
			{Pattern: "Command authorization failed", Label: "Authorization failed", Severity: SeverityFatal},
		},
		ParseRules: []ParseRule{
			{Field: "model", Pattern: `(?i)Hardware:\s+(\S+)`},
			{Field: "version", Pattern: `(?i)Adaptive Security Appliance Software Version\s+(\S+)`},
			{Field: "serial", Pattern: `(?i)Serial Number:\s+(\S+)`},
		},
	}
}

func aristaEOSProfile() *Profile {
	return &Profile{
		DeviceType: "arista_eos",
		Commands: map[CommandKey]string{
			CmdEnterEnable:   "enable",
			CmdEnablePaging:  "terminal length 0",
			CmdShowVersion:   "show version",
			CmdShowInventory: "show inventory",
			CmdShowRunning:   "show running-config",
			CmdSaveConfig:    "write memory",
		},
		Timeouts: map[CommandKey]int{
			CmdShowRunning: 60,
			CmdSaveConfig:  60,
		},
		Capabilities: StaticCapabilities{
			RequiresEnable:        true,
			SupportsPagingControl: true,
			SupportsInventory:     true,
			SupportsConfigReplace: true,
			SupportsFileTransfer:  true,
			RequiresCLIMode:       false,
		},
		ErrorPatterns: []ErrorPattern{
			{Pattern: "% Invalid input", Label: "Invalid command syntax", Severity: SeverityFatal},
			{Pattern: "% Incomplete command", Label: "Incomplete command", Severity: SeverityFatal},
		},
		ParseRules: []ParseRule{
			{Field: "model", Pattern: `(?i)Hardware version:\s+(\S+)`},
			{Field: "version", Pattern: `(?i)Software image version:\s+(\S+)`},
			{Field: "serial", Pattern: `(?i)Serial number:\s+(\S+)`},
		},
	}
}

func juniperJunosProfile() *Profile {
	return &Profile{
		DeviceType: "juniper_junos",
		Commands: map[CommandKey]string{
			CmdEnterCLI:      "cli",
			CmdEnablePaging:  "set cli screen-length 0",
			CmdShowVersion:   "show version",
			CmdShowInventory: "show chassis hardware",
			CmdShowRunning:   "show configuration | display set",
			CmdSaveConfig:    "commit",
		},
		Timeouts: map[CommandKey]int{
			CmdShowRunning: 90,
			CmdSaveConfig:  90,
		},
		Capabilities: StaticCapabilities{
			RequiresEnable:        false,
			SupportsPagingControl: true,
			SupportsInventory:     true,
			SupportsConfigReplace: true,
			SupportsFileTransfer:  true,
			RequiresCLIMode:       true,
		},
		ErrorPatterns: []ErrorPattern{
			{Pattern: "syntax error, expecting", Label: "Invalid command syntax", Severity: SeverityFatal},
			{Pattern: "unknown command", Label: "Unknown command", Severity: SeverityFatal},
			{Pattern: "error: configuration database locked", Label: "Configuration database locked", Severity: SeverityFatal},
		},
		ParseRules: []ParseRule{
			{Field: "model", Pattern: `(?i)Model:\s+(\S+)`},
			{Field: "version", Pattern: `(?i)Junos:\s+(\S+)`},
			{Field: "serial", Pattern: `(?i)Chassis\s+(\S+)`},
		},
	}
}

func paloAltoPanosProfile() *Profile {
	return &Profile{
		DeviceType: "paloalto_panos",
		Commands: map[CommandKey]string{
			CmdEnablePaging:  "set cli pager off",
			CmdShowVersion:   "show system info",
			CmdShowInventory: "show system state filter-pretty sys.s1.p1.hw",
			CmdShowRunning:   "show config running",
			CmdSaveConfig:    "commit",
		},
		Timeouts: map[CommandKey]int{
			CmdShowRunning: 60,
			CmdSaveConfig:  120,
		},
		Capabilities: StaticCapabilities{
			RequiresEnable:        false,
			SupportsPagingControl: true,
			SupportsInventory:     false,
			SupportsConfigReplace: true,
			SupportsFileTransfer:  true,
			RequiresCLIMode:       false,
		},
		ErrorPatterns: []ErrorPattern{
			{Pattern: "Unknown command", Label: "Unknown command", Severity: SeverityFatal},
			{Pattern: "Invalid syntax", Label: "Invalid command syntax", Severity: SeverityFatal},
		},
		ParseRules: []ParseRule{
			{Field: "model", Pattern: `(?i)model:\s*(\S+)`},
			{Field: "version", Pattern: `(?i)sw-version:\s*(\S+)`},
			{Field: "serial", Pattern: `(?i)serial:\s*(\S+)`},
		},
	}
}

func f5TmshProfile() *Profile {
	return &Profile{
		DeviceType: "f5_tmsh",
		Commands: map[CommandKey]string{
			CmdEnterCLI:    "tmsh",
			CmdShowVersion: "show sys version",
			CmdShowRunning: "list sys",
			CmdSaveConfig:  "save sys config",
		},
		Timeouts: map[CommandKey]int{
			CmdShowRunning: 90,
			CmdSaveConfig:  90,
		},
		Capabilities: StaticCapabilities{
			RequiresEnable:        false,
			SupportsPagingControl: false,
			SupportsInventory:     false,
			SupportsConfigReplace: false,
			SupportsFileTransfer:  true,
			RequiresCLIMode:       true,
		},
		ErrorPatterns: []ErrorPattern{
			{Pattern: "Syntax Error", Label: "Invalid command syntax", Severity: SeverityFatal},
			{Pattern: "Unexpected Error", Label: "Unexpected error", Severity: SeverityFatal},
		},
		ParseRules: []ParseRule{
			{Field: "model", Pattern: `(?i)Platform\s+(\S+)`},
			{Field: "version", Pattern: `(?i)Version\s+(\S+)`},
			{Field: "serial", Pattern: `(?i)Appliance Serial\s+(\S+)`},
		},
	}
}
