// Package handlers provides the built-in TaskHandler implementations,
// backup and command_execution. Each binds a scheduler Job to the
// capability catalogue and the device communication facade.
package handlers

import (
	"fmt"

	"github.com/netraven-io/netraven/pkg/protocol"
)

// BackupParams is the narrowly-typed parameter variant for the backup
// job_type. The opaque bag stays scheduler.JobDefinition.Parameters;
// this type validates and extracts it.
type BackupParams struct {
	DeviceID   string
	Host       string
	Username   string
	Password   string
	DeviceType string
	Port       int
	SaveConfig bool
}

// ParseBackupParams validates and extracts BackupParams from an opaque
// parameter bag. device_id, host, username, and password are required;
// save_config defaults to true.
func ParseBackupParams(raw map[string]any) (BackupParams, error) {
	p := BackupParams{SaveConfig: true}

	var err error
	if p.DeviceID, err = requireString(raw, "device_id"); err != nil {
		return p, err
	}
	if p.Host, err = requireString(raw, "host"); err != nil {
		return p, err
	}
	if p.Username, err = requireString(raw, "username"); err != nil {
		return p, err
	}
	if p.Password, err = requireString(raw, "password"); err != nil {
		return p, err
	}
	p.DeviceType, _ = optionalString(raw, "device_type")
	if v, ok := raw["port"]; ok {
		if port, ok := toInt(v); ok {
			p.Port = port
		}
	}
	if v, ok := raw["save_config"]; ok {
		if b, ok := v.(bool); ok {
			p.SaveConfig = b
		}
	}
	return p, nil
}

// CommandParams is the narrowly-typed parameter variant for the
// command_execution job_type. device_id, host, username, password, and
// command are all required.
type CommandParams struct {
	DeviceID   string
	Host       string
	Username   string
	Password   string
	DeviceType string
	Port       int
	Command    string
}

// ParseCommandParams validates and extracts CommandParams from an opaque
// parameter bag.
func ParseCommandParams(raw map[string]any) (CommandParams, error) {
	p := CommandParams{}

	var err error
	if p.DeviceID, err = requireString(raw, "device_id"); err != nil {
		return p, err
	}
	if p.Host, err = requireString(raw, "host"); err != nil {
		return p, err
	}
	if p.Username, err = requireString(raw, "username"); err != nil {
		return p, err
	}
	if p.Password, err = requireString(raw, "password"); err != nil {
		return p, err
	}
	if p.Command, err = requireString(raw, "command"); err != nil {
		return p, err
	}
	p.DeviceType, _ = optionalString(raw, "device_type")
	if v, ok := raw["port"]; ok {
		if port, ok := toInt(v); ok {
			p.Port = port
		}
	}
	return p, nil
}

func requireString(raw map[string]any, key string) (string, error) {
	v, ok := optionalString(raw, key)
	if !ok || v == "" {
		return "", fmt.Errorf("invalid-argument: parameter %q is required", key)
	}
	return v, nil
}

func optionalString(raw map[string]any, key string) (string, bool) {
	v, ok := raw[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// credentials builds protocol.Credentials from a username/password pair.
func credentials(username, password string) protocol.Credentials {
	return protocol.Credentials{Username: username, Password: password}
}
