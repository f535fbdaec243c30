package testbed

import (
	"fmt"
	"sort"
	"strings"

	"github.com/enclaveops/testbed/models"
)

// Check enforces the testbed invariants: every dependency resolves to a
// declared service, the dependency graph is acyclic, device and bind paths
// are absolute, named volume sources are declared, and resource limits are
// positive. Errors name the offending service and field.
func Check(tb *models.Testbed) error {
	if len(tb.Services) == 0 {
		return fmt.Errorf("testbed declares no services")
	}

	if err := CheckDependsOnServicesExist(tb.Services); err != nil {
		return err
	}
	if err := CheckCircularDependencies(tb.Services); err != nil {
		return err
	}

	// Stable iteration (deterministic error messages)
	keys := make([]string, 0, len(tb.Services))
	for k := range tb.Services {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := checkService(key, tb.Services[key], tb.Volumes); err != nil {
			return err
		}
	}

	// container_name overrides collide at create time; catch them here.
	names := map[string]string{}
	for _, key := range keys {
		cn := tb.Services[key].ContainerName
		if cn == "" {
			continue
		}
		if other, ok := names[cn]; ok {
			return fmt.Errorf("services %q and %q declare the same container_name %q", other, key, cn)
		}
		names[cn] = key
	}

	return nil
}

// CheckDependsOnServicesExist verifies every depends_on entry references
// another declared service.
func CheckDependsOnServicesExist(services map[string]models.Service) error {
	keys := make([]string, 0, len(services))
	for k := range services {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, svcKey := range keys {
		svc := services[svcKey]
		for _, depKey := range svc.DependsOn {
			if depKey == svcKey {
				return fmt.Errorf("service %q depends on itself", svcKey)
			}
			if _, ok := services[depKey]; !ok {
				return fmt.Errorf("service %q depends_on %q, but %q does not exist", svcKey, depKey, depKey)
			}
		}
	}

	return nil
}

// CheckCircularDependencies rejects dependency cycles and reports the
// cycle path when one is found.
func CheckCircularDependencies(services map[string]models.Service) error {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]uint8, len(services))
	parent := make(map[string]string, len(services))

	var dfs func(string) error
	dfs = func(node string) error {
		switch state[node] {
		case visiting:
			// Back-edge; reconstruct the cycle from parent pointers.
			return fmt.Errorf("circular dependency detected: %s", reconstructCycle(parent, node))
		case visited:
			return nil
		}

		state[node] = visiting

		for _, dep := range services[node].DependsOn {
			// Existence is checked separately; skip unknown just in case.
			if _, ok := services[dep]; !ok {
				continue
			}
			if _, ok := parent[dep]; !ok {
				parent[dep] = node
			}
			if err := dfs(dep); err != nil {
				return err
			}
		}

		state[node] = visited
		return nil
	}

	keys := make([]string, 0, len(services))
	for k := range services {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, node := range keys {
		if state[node] == unvisited {
			if err := dfs(node); err != nil {
				return err
			}
		}
	}

	return nil
}

func reconstructCycle(parent map[string]string, start string) string {
	seen := map[string]bool{start: true}
	path := []string{start}

	cur := start
	for {
		p, ok := parent[cur]
		if !ok {
			break
		}
		path = append(path, p)
		if seen[p] {
			break
		}
		seen[p] = true
		cur = p
	}

	// Reverse so the chain reads in dependency direction, then close it.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if len(path) > 0 && path[len(path)-1] != path[0] {
		path = append(path, path[0])
	}

	quoted := make([]string, len(path))
	for i, s := range path {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, " -> ")
}

func checkService(key string, svc models.Service, declared map[string]models.VolumeSpec) error {
	if strings.TrimSpace(svc.Image) == "" {
		return fmt.Errorf("service %q has no image", key)
	}

	switch svc.Role {
	case models.ServiceRoleService, models.ServiceRoleRunner:
	default:
		return fmt.Errorf("service %q has invalid role %q", key, svc.Role)
	}

	if err := checkDevices(key, svc.Devices); err != nil {
		return err
	}
	if err := checkVolumes(key, svc.Volumes, declared); err != nil {
		return err
	}
	if err := checkPorts(key, svc); err != nil {
		return err
	}
	if err := checkResources(key, svc.Resources); err != nil {
		return err
	}

	return nil
}

func checkDevices(key string, devices []string) error {
	seenTarget := map[string]struct{}{}

	for _, spec := range devices {
		d, err := models.ParseDevice(spec)
		if err != nil {
			return fmt.Errorf("service %q: %w", key, err)
		}
		if !strings.HasPrefix(d.PathOnHost, "/") {
			return fmt.Errorf("service %q device host path %q must be absolute", key, d.PathOnHost)
		}
		if !strings.HasPrefix(d.PathInContainer, "/") {
			return fmt.Errorf("service %q device container path %q must be absolute", key, d.PathInContainer)
		}
		if _, ok := seenTarget[d.PathInContainer]; ok {
			return fmt.Errorf("service %q has duplicate device target %q", key, d.PathInContainer)
		}
		seenTarget[d.PathInContainer] = struct{}{}
	}

	return nil
}

func checkVolumes(key string, volumes []string, declared map[string]models.VolumeSpec) error {
	seenTarget := map[string]struct{}{}

	for _, spec := range volumes {
		b, err := models.ParseVolumeBinding(spec)
		if err != nil {
			return fmt.Errorf("service %q: %w", key, err)
		}
		if !strings.HasPrefix(b.Target, "/") {
			return fmt.Errorf("service %q volume target %q must be absolute", key, b.Target)
		}
		if b.Named {
			if _, ok := declared[b.Source]; !ok {
				return fmt.Errorf("service %q references undeclared volume %q", key, b.Source)
			}
		}
		if _, ok := seenTarget[b.Target]; ok {
			return fmt.Errorf("service %q has duplicate volume target %q", key, b.Target)
		}
		seenTarget[b.Target] = struct{}{}
	}

	return nil
}

func checkPorts(key string, svc models.Service) error {
	for _, spec := range svc.Ports {
		if _, err := models.ParsePortBinding(spec); err != nil {
			return fmt.Errorf("service %q: %w", key, err)
		}
	}

	for _, spec := range svc.Expose {
		b, err := models.ParsePortBinding(spec)
		if err != nil {
			return fmt.Errorf("service %q: %w", key, err)
		}
		if b.HostPort != 0 || b.HostIP != "" {
			return fmt.Errorf("service %q expose entry %q must not publish a host port", key, spec)
		}
	}

	return nil
}

func checkResources(key string, r *models.Resources) error {
	if r == nil {
		return nil
	}
	if r.CPUs < 0 {
		return fmt.Errorf("service %q cpu limit must be positive, got %v", key, r.CPUs)
	}
	if r.Memory < 0 {
		return fmt.Errorf("service %q memory limit must be positive, got %d", key, int64(r.Memory))
	}
	if r.CPUs == 0 && r.Memory == 0 {
		return fmt.Errorf("service %q declares an empty resources block", key)
	}
	return nil
}
