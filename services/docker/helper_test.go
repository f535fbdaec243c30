package docker

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/enclaveops/testbed/models"
)

func frame(stream byte, payload string) []byte {
	header := make([]byte, 8)
	header[0] = stream
	binary.BigEndian.PutUint32(header[4:8], uint32(len(payload)))
	return append(header, payload...)
}

func TestDemuxEngineLogs(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(1, "out line\n"))
	src.Write(frame(2, "err line\n"))
	src.Write(frame(1, "more out\n"))

	var stdout, stderr bytes.Buffer
	if err := DemuxEngineLogs(&stdout, &stderr, &src); err != nil {
		t.Fatalf("demux: %v", err)
	}

	if got, want := stdout.String(), "out line\nmore out\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if got, want := stderr.String(), "err line\n"; got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}

func TestDemuxEngineLogsEmptyFrame(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(1, ""))
	src.Write(frame(1, "tail"))

	var stdout, stderr bytes.Buffer
	if err := DemuxEngineLogs(&stdout, &stderr, &src); err != nil {
		t.Fatalf("demux: %v", err)
	}
	if stdout.String() != "tail" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestDemuxEngineLogsTruncatedPayload(t *testing.T) {
	src := bytes.NewBuffer(frame(1, "full")[:10]) // header + 2 of 4 payload bytes

	var stdout, stderr bytes.Buffer
	if err := DemuxEngineLogs(&stdout, &stderr, src); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}

func TestContainerName(t *testing.T) {
	svc := models.Service{}
	if got, want := ContainerName("sgx-testbed", "node", svc), "sgx-testbed-node"; got != want {
		t.Errorf("ContainerName = %q, want %q", got, want)
	}

	svc.ContainerName = "secret-node"
	if got := ContainerName("sgx-testbed", "node", svc); got != "secret-node" {
		t.Errorf("ContainerName override = %q, want %q", got, "secret-node")
	}
}

func TestVolumeName(t *testing.T) {
	if got, want := VolumeName("SGX Testbed", "AESMD Socket"), "tb-sgx-testbed-aesmd-socket"; got != want {
		t.Errorf("VolumeName = %q, want %q", got, want)
	}
}

func TestNetworkName(t *testing.T) {
	if got, want := NetworkName("sgx-testbed"), "sgx-testbed-net"; got != want {
		t.Errorf("NetworkName = %q, want %q", got, want)
	}
}

func TestIsRunnerRole(t *testing.T) {
	if IsRunnerRole(models.Service{Role: models.ServiceRoleService}) {
		t.Error("service role reported as runner")
	}
	if !IsRunnerRole(models.Service{Role: models.ServiceRoleRunner}) {
		t.Error("runner role not detected")
	}
}
