package models

import (
	"fmt"
	"strings"
)

// DeviceMapping is a parsed device passthrough entry.
type DeviceMapping struct {
	PathOnHost        string
	PathInContainer   string
	CgroupPermissions string
}

// ParseDevice parses "host[:container[:permissions]]". The container path
// defaults to the host path and permissions default to "rwm". A two-part
// spec may also be "host:permissions", matching the engine CLI.
func ParseDevice(spec string) (DeviceMapping, error) {
	d := DeviceMapping{CgroupPermissions: "rwm"}

	parts := strings.Split(spec, ":")
	switch len(parts) {
	case 1:
		d.PathOnHost = parts[0]
		d.PathInContainer = parts[0]
	case 2:
		d.PathOnHost = parts[0]
		if validDevicePermissions(parts[1]) {
			d.PathInContainer = parts[0]
			d.CgroupPermissions = parts[1]
		} else {
			d.PathInContainer = parts[1]
		}
	case 3:
		d.PathOnHost = parts[0]
		d.PathInContainer = parts[1]
		d.CgroupPermissions = parts[2]
	default:
		return DeviceMapping{}, fmt.Errorf("invalid device spec %q", spec)
	}

	if d.PathOnHost == "" {
		return DeviceMapping{}, fmt.Errorf("device spec %q has an empty host path", spec)
	}
	if !validDevicePermissions(d.CgroupPermissions) {
		return DeviceMapping{}, fmt.Errorf("device spec %q has invalid permissions %q", spec, d.CgroupPermissions)
	}

	return d, nil
}

func validDevicePermissions(perms string) bool {
	if perms == "" {
		return false
	}
	for _, c := range perms {
		if c != 'r' && c != 'w' && c != 'm' {
			return false
		}
	}
	return true
}
