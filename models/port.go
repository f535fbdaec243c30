package models

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// PortBinding is a parsed port entry. HostPort zero means the port is
// exposed but not published.
type PortBinding struct {
	HostIP        string
	HostPort      uint16
	ContainerPort uint16
	Proto         string
}

// ParsePortBinding parses "[host-ip:][host:]container[/proto]".
// Proto defaults to tcp.
func ParsePortBinding(spec string) (PortBinding, error) {
	b := PortBinding{Proto: "tcp"}

	rest := spec
	if i := strings.LastIndex(rest, "/"); i >= 0 {
		proto := strings.ToLower(rest[i+1:])
		if proto != "tcp" && proto != "udp" {
			return PortBinding{}, fmt.Errorf("port spec %q has invalid protocol %q", spec, proto)
		}
		b.Proto = proto
		rest = rest[:i]
	}

	parts := strings.Split(rest, ":")
	var err error
	switch len(parts) {
	case 1:
		b.ContainerPort, err = parsePortNumber(spec, parts[0])
		if err != nil {
			return PortBinding{}, err
		}
	case 2:
		if b.HostPort, err = parsePortNumber(spec, parts[0]); err != nil {
			return PortBinding{}, err
		}
		if b.ContainerPort, err = parsePortNumber(spec, parts[1]); err != nil {
			return PortBinding{}, err
		}
	case 3:
		b.HostIP = parts[0]
		// Must be a literal address; the engine API takes no host names.
		if _, aerr := netip.ParseAddr(b.HostIP); aerr != nil {
			return PortBinding{}, fmt.Errorf("port spec %q has invalid host address %q: %w", spec, b.HostIP, aerr)
		}
		if b.HostPort, err = parsePortNumber(spec, parts[1]); err != nil {
			return PortBinding{}, err
		}
		if b.ContainerPort, err = parsePortNumber(spec, parts[2]); err != nil {
			return PortBinding{}, err
		}
	default:
		return PortBinding{}, fmt.Errorf("invalid port spec %q", spec)
	}

	return b, nil
}

func parsePortNumber(spec, s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("port spec %q has invalid port %q", spec, s)
	}
	return uint16(n), nil
}
