package catalogue

import (
	"regexp"
	"strings"
	"sync"
)

// Capabilities is the derived record produced by parsing a device's
// show-version output.
type Capabilities struct {
	Model           string
	Version         string
	Serial          string
	Hardware        string
	PlatformSubtype string
}

var (
	regexMu    sync.Mutex
	regexCache = map[string]*regexp.Regexp{}
)

func compile(pattern string) *regexp.Regexp {
	regexMu.Lock()
	defer regexMu.Unlock()
	if re, ok := regexCache[pattern]; ok {
		return re
	}
	re := regexp.MustCompile(pattern)
	regexCache[pattern] = re
	return re
}

// ParseCapabilities applies the vendor's regex table to version output,
// extracting model/version/serial/hardware plus a synthesized
// platform_subtype.
func (c *Catalogue) ParseCapabilities(deviceType, versionOutput string) Capabilities {
	p := c.profile(deviceType)
	var caps Capabilities
	fields := map[string]*string{
		"model":    &caps.Model,
		"version":  &caps.Version,
		"serial":   &caps.Serial,
		"hardware": &caps.Hardware,
	}
	for _, rule := range p.ParseRules {
		dest, ok := fields[rule.Field]
		if !ok || *dest != "" {
			continue
		}
		m := compile(rule.Pattern).FindStringSubmatch(versionOutput)
		if len(m) >= 2 {
			*dest = m[1]
		}
	}
	caps.PlatformSubtype = platformSubtype(p.DeviceType, versionOutput)
	if caps.PlatformSubtype == "" {
		caps.PlatformSubtype = p.PlatformSubtype
	}
	return caps
}

// platformSubtype synthesizes a short family-subtype tag from the raw
// output, e.g. distinguishing classic IOS from IOS-XE on the same
// cisco_ios device type.
func platformSubtype(deviceType, output string) string {
	lower := strings.ToLower(output)
	switch deviceType {
	case "cisco_ios":
		switch {
		case strings.Contains(lower, "ios-xe"):
			return "iosxe"
		case strings.Contains(lower, "ios xe"):
			return "iosxe"
		case strings.Contains(lower, "ios"):
			return "ios"
		}
	case "cisco_nxos":
		return "nxos"
	case "cisco_xr":
		return "iosxr"
	case "cisco_asa":
		return "asa"
	case "arista_eos":
		return "eos"
	case "juniper_junos":
		return "junos"
	case "paloalto_panos":
		return "panos"
	case "f5_tmsh":
		return "tmsh"
	}
	return ""
}

// DetectError scans command output against the vendor's error pattern
// table and returns the first match's human label. Returns ("", false)
// for empty output or no match.
func (c *Catalogue) DetectError(deviceType, output string) (string, bool) {
	if output == "" {
		return "", false
	}
	p := c.profile(deviceType)
	for _, pat := range p.ErrorPatterns {
		if strings.Contains(output, pat.Pattern) {
			return pat.Label, true
		}
	}
	// Fall back to the default profile's patterns too, so a vendor
	// profile need not repeat universally-applicable signatures.
	if p.DeviceType != DefaultDeviceType {
		for _, pat := range c.profiles[DefaultDeviceType].ErrorPatterns {
			if strings.Contains(output, pat.Pattern) {
				return pat.Label, true
			}
		}
	}
	return "", false
}

// DetectErrorSeverity is DetectError plus the matched pattern's severity,
// used by the backup task handler to decide whether a detected error fails
// the job (fatal) or is tolerated (warning).
func (c *Catalogue) DetectErrorSeverity(deviceType, output string) (label string, severity Severity, found bool) {
	if output == "" {
		return "", "", false
	}
	p := c.profile(deviceType)
	for _, pat := range p.ErrorPatterns {
		if strings.Contains(output, pat.Pattern) {
			return pat.Label, pat.Severity, true
		}
	}
	if p.DeviceType != DefaultDeviceType {
		for _, pat := range c.profiles[DefaultDeviceType].ErrorPatterns {
			if strings.Contains(output, pat.Pattern) {
				return pat.Label, pat.Severity, true
			}
		}
	}
	return "", "", false
}
