package models

import "testing"

func TestParsePortBinding(t *testing.T) {
	cases := map[string]PortBinding{
		"26657": {
			ContainerPort: 26657,
			Proto:         "tcp",
		},
		"1317:1317": {
			HostPort:      1317,
			ContainerPort: 1317,
			Proto:         "tcp",
		},
		"26656/udp": {
			ContainerPort: 26656,
			Proto:         "udp",
		},
		"127.0.0.1:9091:9090": {
			HostIP:        "127.0.0.1",
			HostPort:      9091,
			ContainerPort: 9090,
			Proto:         "tcp",
		},
		"8080:80/tcp": {
			HostPort:      8080,
			ContainerPort: 80,
			Proto:         "tcp",
		},
	}

	for spec, want := range cases {
		got, err := ParsePortBinding(spec)
		if err != nil {
			t.Errorf("ParsePortBinding(%q) unexpected error: %v", spec, err)
			continue
		}
		if got != want {
			t.Errorf("ParsePortBinding(%q) = %+v, want %+v", spec, got, want)
		}
	}
}

func TestParsePortBindingInvalid(t *testing.T) {
	invalids := []string{
		"",
		"0",
		"70000",
		"80/sctp",
		"a:80",
		"1.2.3.4:80",        // host ip without host port
		"1:2:3:4",
		":80:80",
		"localhost:8080:80", // host names are not literal addresses
	}

	for _, spec := range invalids {
		if _, err := ParsePortBinding(spec); err == nil {
			t.Errorf("ParsePortBinding(%q) expected error, got none", spec)
		}
	}
}
