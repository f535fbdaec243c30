package docker

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/enclaveops/testbed/models"
)

// Labels scoping engine objects to a deployment.
const (
	LabelDeployment = "testbed.deployment"
	LabelRun        = "testbed.run"
	LabelService    = "testbed.service"
	LabelVolume     = "testbed.volume"
)

// DemuxEngineLogs splits a multiplexed engine log stream into stdout and
// stderr writers. Returns nil on clean EOF.
func DemuxEngineLogs(dstOut, dstErr io.Writer, src io.Reader) error {
	r := bufio.NewReader(src)

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}

		streamType := header[0] // 1=stdout, 2=stderr
		size := binary.BigEndian.Uint32(header[4:8])

		if size == 0 {
			continue
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return err
		}

		var w io.Writer
		switch streamType {
		case 2:
			w = dstErr
		default:
			// Unknown stream, treat as stdout to avoid dropping data
			w = dstOut
		}

		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write engine log payload: %w", err)
		}
	}
}

// NextWave partitions services into those whose dependencies have all
// started (sorted, for deterministic startup) and the remainder. An empty
// ready set with a non-empty remainder means the remainder can never start.
func NextWave(services map[string]models.Service, started []string) ([]string, map[string]models.Service) {
	ready := []string{}
	notRun := make(map[string]models.Service)

	for name, svc := range services {
		cantRun := false
		for _, dependency := range svc.DependsOn {
			if !slices.Contains(started, dependency) {
				cantRun = true
				break
			}
		}
		if cantRun {
			notRun[name] = svc
			continue
		}
		ready = append(ready, name)
	}

	sort.Strings(ready)
	return ready, notRun
}

func IsRunnerRole(svc models.Service) bool {
	return svc.Role == models.ServiceRoleRunner
}

// ContainerName returns the deployment-scoped container name for a service,
// honoring an explicit container_name override.
func ContainerName(deployment string, serviceKey string, svc models.Service) string {
	if svc.ContainerName != "" {
		return svc.ContainerName
	}
	return fmt.Sprintf("%s-%s", deployment, strings.TrimSpace(serviceKey))
}

// NetworkName returns the single deployment network name.
func NetworkName(deployment string) string {
	return fmt.Sprintf("%s-net", deployment)
}

// VolumeName returns a deterministic, engine-friendly name for a declared
// volume.
func VolumeName(deployment, volume string) string {
	safe := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.ReplaceAll(s, " ", "-")
		return s
	}
	return fmt.Sprintf("tb-%s-%s", safe(deployment), safe(volume))
}
