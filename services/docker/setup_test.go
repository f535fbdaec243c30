package docker

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/enclaveops/testbed/models"
)

// collectWaves drives NextWave to completion the way ServiceSetup does and
// returns the startup waves in order.
func collectWaves(t *testing.T, services map[string]models.Service) [][]string {
	t.Helper()

	var waves [][]string
	started := []string{}

	for len(services) > 0 {
		ready, notRun := NextWave(services, started)
		if len(ready) == 0 {
			t.Fatalf("dependency deadlock with %d services remaining", len(notRun))
		}
		waves = append(waves, ready)
		started = append(started, ready...)
		services = notRun
	}

	return waves
}

func TestNextWaveStartsDependenciesFirst(t *testing.T) {
	services := map[string]models.Service{
		"aesm": {},
		"base": {},
		"bootstrap": {
			DependsOn: []string{"aesm"},
		},
		"node": {
			DependsOn: []string{"aesm", "bootstrap"},
		},
		"enclave-test": {
			DependsOn: []string{"node"},
		},
	}

	waves := collectWaves(t, services)

	want := [][]string{
		{"aesm", "base"},
		{"bootstrap"},
		{"node"},
		{"enclave-test"},
	}
	if diff := cmp.Diff(want, waves); diff != "" {
		t.Errorf("startup waves mismatch (-want +got):\n%s", diff)
	}
}

func TestNextWaveSingleWave(t *testing.T) {
	services := map[string]models.Service{
		"a": {},
		"b": {},
		"c": {},
	}

	waves := collectWaves(t, services)

	want := [][]string{{"a", "b", "c"}}
	if diff := cmp.Diff(want, waves); diff != "" {
		t.Errorf("startup waves mismatch (-want +got):\n%s", diff)
	}
}

func TestNextWaveDeadlock(t *testing.T) {
	// Mutual dependency; nothing can ever become ready.
	services := map[string]models.Service{
		"a": {DependsOn: []string{"b"}},
		"b": {DependsOn: []string{"a"}},
	}

	ready, notRun := NextWave(services, nil)
	if len(ready) != 0 {
		t.Errorf("ready = %v, want none", ready)
	}
	if len(notRun) != 2 {
		t.Errorf("notRun = %d services, want 2", len(notRun))
	}
}

func TestNextWaveDanglingDependency(t *testing.T) {
	// A dependency on an undeclared service never starts either.
	services := map[string]models.Service{
		"node": {DependsOn: []string{"ghost"}},
	}

	ready, notRun := NextWave(services, nil)
	if len(ready) != 0 {
		t.Errorf("ready = %v, want none", ready)
	}
	if len(notRun) != 1 {
		t.Errorf("notRun = %d services, want 1", len(notRun))
	}
}
