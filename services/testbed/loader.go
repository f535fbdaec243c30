package testbed

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/enclaveops/testbed/models"
)

// Load reads and decodes a testbed file. Decoding is strict: unknown keys
// are an error so schema drift is caught at validate time, not deploy time.
func Load(path string) (*models.Testbed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read testbed file %q: %w", path, err)
	}

	tb, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("parse testbed file %q: %w", path, err)
	}
	return tb, nil
}

// Decode parses testbed YAML and applies defaults.
func Decode(b []byte) (*models.Testbed, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var tb models.Testbed
	if err := dec.Decode(&tb); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty document")
		}
		return nil, err
	}

	for name, svc := range tb.Services {
		if svc.Role == "" {
			svc.Role = models.ServiceRoleService
			tb.Services[name] = svc
		}
	}

	return &tb, nil
}
