package testbed

import (
	"testing"

	"github.com/enclaveops/testbed/models"
)

func TestLoad(t *testing.T) {
	tb, err := Load("testdata/sgx-testbed.yml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got, want := len(tb.Services), 5; got != want {
		t.Fatalf("services = %d, want %d", got, want)
	}

	node, ok := tb.Services["node"]
	if !ok {
		t.Fatal("service \"node\" not found")
	}
	if node.Image != "enclaveops/node:latest" {
		t.Errorf("node image = %q", node.Image)
	}
	if len(node.DependsOn) != 2 {
		t.Errorf("node depends_on = %v", node.DependsOn)
	}
	if node.Role != models.ServiceRoleService {
		t.Errorf("node role = %q, want default %q", node.Role, models.ServiceRoleService)
	}
	if node.Resources == nil || node.Resources.CPUs != 1 {
		t.Errorf("node resources = %+v", node.Resources)
	}

	et := tb.Services["enclave-test"]
	if et.Role != models.ServiceRoleRunner {
		t.Errorf("enclave-test role = %q, want runner", et.Role)
	}
	if !et.StdinOpen || !et.Tty {
		t.Errorf("enclave-test interactive flags = stdin_open:%v tty:%v", et.StdinOpen, et.Tty)
	}

	if _, ok := tb.Volumes["aesmd-socket"]; !ok {
		t.Error("volume \"aesmd-socket\" not declared")
	}
}

func TestDecodeUnknownKey(t *testing.T) {
	in := `
services:
  node:
    image: enclaveops/node:latest
    imagee: typo
`
	if _, err := Decode([]byte(in)); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("testdata/does-not-exist.yml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
