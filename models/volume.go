package models

import (
	"fmt"
	"strings"
)

// VolumeBinding is a parsed volume entry. Named reports whether Source
// references a declared volume rather than a host path.
type VolumeBinding struct {
	Source   string
	Target   string
	ReadOnly bool
	Named    bool
}

// ParseVolumeBinding parses "source:target[:mode]". A source starting with
// "/" is a host bind; anything else names a volume declared at the top
// level of the testbed file. Mode is "rw" (default) or "ro".
func ParseVolumeBinding(spec string) (VolumeBinding, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return VolumeBinding{}, fmt.Errorf("invalid volume spec %q (want source:target[:mode])", spec)
	}

	b := VolumeBinding{
		Source: strings.TrimSpace(parts[0]),
		Target: strings.TrimSpace(parts[1]),
	}
	if b.Source == "" {
		return VolumeBinding{}, fmt.Errorf("volume spec %q has an empty source", spec)
	}
	if b.Target == "" {
		return VolumeBinding{}, fmt.Errorf("volume spec %q has an empty target", spec)
	}
	b.Named = !strings.HasPrefix(b.Source, "/")

	if len(parts) == 3 {
		switch parts[2] {
		case "rw":
		case "ro":
			b.ReadOnly = true
		default:
			return VolumeBinding{}, fmt.Errorf("volume spec %q has invalid mode %q", spec, parts[2])
		}
	}

	return b, nil
}
