package models

import (
	"fmt"

	"github.com/docker/go-units"
)

// Resources is a static ceiling for one service. Zero fields are absent.
type Resources struct {
	CPUs   float64 `yaml:"cpus,omitempty"`
	Memory Memory  `yaml:"memory,omitempty"`
}

// NanoCPUs converts the cpu count to the engine's 1e-9 CPU unit.
func (r *Resources) NanoCPUs() int64 {
	return int64(r.CPUs * 1e9)
}

// Memory is a byte count that also decodes from human-readable sizes
// like "4096M" or "2g".
type Memory int64

func (m *Memory) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var n int64
	if err := unmarshal(&n); err == nil {
		*m = Memory(n)
		return nil
	}

	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	bytes, err := units.RAMInBytes(s)
	if err != nil {
		return fmt.Errorf("invalid memory limit %q: %w", s, err)
	}
	*m = Memory(bytes)
	return nil
}

func (m Memory) String() string {
	return units.BytesSize(float64(m))
}
