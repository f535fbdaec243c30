package docker

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/enclaveops/testbed/models"
)

// CheckHost verifies host-side preconditions the schema cannot: device
// nodes referenced by services must exist, and bind-mount sources must
// exist. Missing bind sources would otherwise be silently created as
// root-owned directories by the engine.
func (p *DockerPlatform) CheckHost(ctx context.Context, tb *models.Testbed) error {
	keys := make([]string, 0, len(tb.Services))
	for k := range tb.Services {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		svc := tb.Services[key]

		for _, spec := range svc.Devices {
			d, err := models.ParseDevice(spec)
			if err != nil {
				return fmt.Errorf("service %q: %w", key, err)
			}
			if _, err := os.Stat(d.PathOnHost); err != nil {
				return fmt.Errorf("service %q device %q not available on host: %w", key, d.PathOnHost, err)
			}
		}

		for _, spec := range svc.Volumes {
			b, err := models.ParseVolumeBinding(spec)
			if err != nil {
				return fmt.Errorf("service %q: %w", key, err)
			}
			if b.Named {
				continue
			}
			if _, err := os.Stat(b.Source); err != nil {
				return fmt.Errorf("service %q bind source %q not available on host: %w", key, b.Source, err)
			}
		}
	}

	p.log.Debug("host pre-flight passed", zap.Int("services", len(tb.Services)))
	return nil
}
