package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestEnvironmentUnmarshalList(t *testing.T) {
	var doc struct {
		Environment Environment `yaml:"environment"`
	}

	in := `
environment:
  - SGX_MODE
  - SECRET_NODE_TYPE=BOOTSTRAP
`
	if err := yaml.Unmarshal([]byte(in), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := Environment{"SGX_MODE", "SECRET_NODE_TYPE=BOOTSTRAP"}
	if diff := cmp.Diff(want, doc.Environment); diff != "" {
		t.Errorf("environment mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentUnmarshalMap(t *testing.T) {
	var doc struct {
		Environment Environment `yaml:"environment"`
	}

	in := `
environment:
  SECRET_NODE_TYPE: BOOTSTRAP
  AESM_PATH: /opt/intel/aesm
`
	if err := yaml.Unmarshal([]byte(in), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// map form is normalized and sorted
	want := Environment{"AESM_PATH=/opt/intel/aesm", "SECRET_NODE_TYPE=BOOTSTRAP"}
	if diff := cmp.Diff(want, doc.Environment); diff != "" {
		t.Errorf("environment mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentResolve(t *testing.T) {
	env := Environment{"SGX_MODE", "SECRET_NODE_TYPE=NODE"}

	got := env.Resolve(func(name string) string {
		if name == "SGX_MODE" {
			return "SW"
		}
		return ""
	})

	want := []string{"SGX_MODE=SW", "SECRET_NODE_TYPE=NODE"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentResolveUnset(t *testing.T) {
	env := Environment{"MISSING"}

	got := env.Resolve(func(string) string { return "" })
	want := []string{"MISSING="}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentPassthroughNames(t *testing.T) {
	env := Environment{"SGX_MODE", "A=1", "HTTP_PROXY"}

	want := []string{"SGX_MODE", "HTTP_PROXY"}
	if diff := cmp.Diff(want, env.PassthroughNames()); diff != "" {
		t.Errorf("passthrough mismatch (-want +got):\n%s", diff)
	}
}
