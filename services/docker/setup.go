package docker

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"strconv"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"

	"github.com/enclaveops/testbed/models"
)

// NetworkSetup ensures the deployment network exists. All services join it
// and resolve each other by service key.
func (p *DockerPlatform) NetworkSetup(ctx context.Context, deployment string, run uuid.UUID) error {
	netName := NetworkName(deployment)

	_, err := p.client.NetworkInspect(ctx, netName, client.NetworkInspectOptions{})
	if err == nil {
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return fmt.Errorf("inspect network %q: %w", netName, err)
	}

	_, err = p.client.NetworkCreate(ctx, netName, client.NetworkCreateOptions{
		Labels: map[string]string{
			LabelDeployment: deployment,
			LabelRun:        run.String(),
		},
	})
	if err != nil {
		// Race-safe: if something else created it, proceed.
		if _, ie := p.client.NetworkInspect(ctx, netName, client.NetworkInspectOptions{}); ie != nil {
			return fmt.Errorf("create network %q: %w", netName, err)
		}
	}

	return nil
}

// VolumeSetup ensures every declared named volume exists.
func (p *DockerPlatform) VolumeSetup(ctx context.Context, deployment string, run uuid.UUID, tb *models.Testbed) error {
	for volName := range tb.Volumes {
		name := VolumeName(deployment, volName)

		// If it already exists, treat as success.
		_, err := p.client.VolumeInspect(ctx, name, client.VolumeInspectOptions{})
		if err == nil {
			continue
		}
		if !errdefs.IsNotFound(err) {
			return fmt.Errorf("inspect volume %q: %w", name, err)
		}

		_, err = p.client.VolumeCreate(ctx, client.VolumeCreateOptions{
			Name: name,
			Labels: map[string]string{
				LabelDeployment: deployment,
				LabelRun:        run.String(),
				LabelVolume:     volName, // original logical name
			},
		})
		if err != nil {
			// Created concurrently is fine; re-check rather than pattern
			// match error strings.
			if _, ie := p.client.VolumeInspect(ctx, name, client.VolumeInspectOptions{}); ie == nil {
				continue
			}
			return fmt.Errorf("create volume %q: %w", name, err)
		}
	}

	return nil
}

// ServiceSetup starts services in dependency waves: a service starts only
// once everything it depends on has been started. The graph is validated
// acyclic beforehand; the progress guard is a backstop for direct callers.
func (p *DockerPlatform) ServiceSetup(ctx context.Context, deployment string, run uuid.UUID, tb *models.Testbed) error {
	services := tb.Services

	started := []string{}

	for len(services) > 0 {
		ready, notRun := NextWave(services, started)
		if len(ready) == 0 {
			return fmt.Errorf("dependency deadlock: cannot start %d remaining services", len(notRun))
		}

		for _, name := range ready {
			if err := p.startService(ctx, deployment, run, name, services[name], tb); err != nil {
				return err
			}
			started = append(started, name)
		}
		services = notRun
	}

	return nil
}

func (p *DockerPlatform) startService(
	ctx context.Context,
	deployment string,
	run uuid.UUID,
	serviceKey string,
	svc models.Service,
	tb *models.Testbed,
) error {
	log := p.log.Named("service").With(
		zap.String("deployment", deployment),
		zap.String("service", serviceKey),
	)

	containerName := ContainerName(deployment, serviceKey, svc)

	// Env: resolve host passthrough entries, warn on unset names.
	for _, name := range svc.Environment.PassthroughNames() {
		if _, ok := os.LookupEnv(name); !ok {
			log.Warn("forwarded environment variable is unset on the host", zap.String("variable", name))
		}
	}
	env := svc.Environment.Resolve(os.Getenv)

	// Volume bindings: host binds and declared named volumes.
	mounts := make([]mount.Mount, 0, len(svc.Volumes))
	for _, spec := range svc.Volumes {
		b, err := models.ParseVolumeBinding(spec)
		if err != nil {
			return fmt.Errorf("service %q: %w", serviceKey, err)
		}

		m := mount.Mount{
			Type:     mount.TypeBind,
			Source:   b.Source,
			Target:   b.Target,
			ReadOnly: b.ReadOnly,
		}
		if b.Named {
			m.Type = mount.TypeVolume
			m.Source = VolumeName(deployment, b.Source)
		}
		mounts = append(mounts, m)
	}

	// Device passthrough.
	devices := make([]container.DeviceMapping, 0, len(svc.Devices))
	for _, spec := range svc.Devices {
		d, err := models.ParseDevice(spec)
		if err != nil {
			return fmt.Errorf("service %q: %w", serviceKey, err)
		}
		devices = append(devices, container.DeviceMapping{
			PathOnHost:        d.PathOnHost,
			PathInContainer:   d.PathInContainer,
			CgroupPermissions: d.CgroupPermissions,
		})
	}

	// Port exposure and publishing.
	exposed := network.PortSet{}
	portMap := network.PortMap{}

	for _, spec := range append(append([]string{}, svc.Ports...), svc.Expose...) {
		b, err := models.ParsePortBinding(spec)
		if err != nil {
			return fmt.Errorf("service %q: %w", serviceKey, err)
		}

		port, ok := network.PortFrom(b.ContainerPort, network.IPProtocol(b.Proto))
		if !ok {
			return fmt.Errorf("service %q port %q: invalid port/protocol", serviceKey, spec)
		}
		exposed[port] = struct{}{}

		if b.HostPort == 0 {
			continue
		}

		hostIP := b.HostIP
		if hostIP == "" {
			hostIP = "0.0.0.0"
		}
		addr, err := netip.ParseAddr(hostIP)
		if err != nil {
			return fmt.Errorf("service %q has invalid host address %q: %w", serviceKey, hostIP, err)
		}

		portMap[port] = append(portMap[port], network.PortBinding{
			HostIP:   addr,
			HostPort: strconv.Itoa(int(b.HostPort)),
		})
	}

	// Labels: deployment scope plus any service-declared labels.
	labels := map[string]string{
		LabelDeployment: deployment,
		LabelRun:        run.String(),
		LabelService:    serviceKey,
	}
	for k, v := range svc.Labels {
		labels[k] = v
	}

	// Replace any stale same-name container from an earlier run.
	if _, err := p.client.ContainerInspect(ctx, containerName, client.ContainerInspectOptions{}); err == nil {
		log.Info("replacing stale container", zap.String("container", containerName))

		// Stop (best-effort) then remove
		_, _ = p.client.ContainerStop(ctx, containerName, client.ContainerStopOptions{})
		if _, err := p.client.ContainerRemove(ctx, containerName, client.ContainerRemoveOptions{
			Force:         true,
			RemoveVolumes: false,
		}); err != nil {
			return fmt.Errorf("remove existing container %q: %w", containerName, err)
		}
	}

	cCfg := &container.Config{
		Image:        svc.Image,
		Env:          env,
		Labels:       labels,
		ExposedPorts: exposed,
		OpenStdin:    svc.StdinOpen,
		Tty:          svc.Tty,
	}

	hCfg := &container.HostConfig{
		Mounts:       mounts,
		PortBindings: portMap,
		Privileged:   svc.Privileged,
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyAlways,
		},
		Resources: container.Resources{
			Devices: devices,
		},
	}
	if svc.Resources != nil {
		hCfg.Resources.NanoCPUs = svc.Resources.NanoCPUs()
		hCfg.Resources.Memory = int64(svc.Resources.Memory)
	}

	isRunner := IsRunnerRole(svc)
	if isRunner {
		hCfg.RestartPolicy = container.RestartPolicy{
			Name: container.RestartPolicyDisabled,
		}
	}

	// Every service joins the deployment network, reachable by service key.
	nCfg := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			NetworkName(deployment): {
				Aliases: []string{serviceKey},
			},
		},
	}

	containerID := ""

	created, err := p.client.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:           cCfg,
		HostConfig:       hCfg,
		NetworkingConfig: nCfg,
		Name:             containerName,
		Image:            svc.Image,
	})
	if err != nil {
		// Race-safe: if something else created it, inspect and proceed
		inspected, ie := p.client.ContainerInspect(ctx, containerName, client.ContainerInspectOptions{})
		if ie != nil {
			return fmt.Errorf("create container %q: %w", containerName, err)
		}
		containerID = inspected.Container.ID
	} else {
		containerID = created.ID
	}

	if _, err := p.client.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return fmt.Errorf("start container %q: %w", containerName, err)
	}
	log.Info("container started", zap.String("container", containerName), zap.String("image", svc.Image))

	if isRunner {
		return p.waitForRunner(ctx, containerName, containerID)
	}

	return nil
}

// waitForRunner streams a runner-role container's logs, waits for it to
// exit, removes it, and surfaces a non-zero exit status as an error.
func (p *DockerPlatform) waitForRunner(ctx context.Context, containerName, containerID string) error {
	rc, err := p.client.ContainerLogs(ctx, containerID, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Timestamps: false,
		Since:      "0",
	})
	if err != nil {
		return fmt.Errorf("logs container %q: %w", containerName, err)
	}
	defer rc.Close()

	logDone := make(chan error, 1)
	go func() {
		logDone <- DemuxEngineLogs(os.Stdout, os.Stderr, rc)
	}()

	waitBodyC := p.client.ContainerWait(ctx, containerID, client.ContainerWaitOptions{})
	var statusCode int64

	select {
	case err := <-waitBodyC.Error:
		if err != nil {
			return fmt.Errorf("wait container %q: %w", containerName, err)
		}
	case res := <-waitBodyC.Result:
		statusCode = res.StatusCode
	}

	// The log stream normally ends when the container exits; anything other
	// than clean EOF is worth surfacing.
	if err := <-logDone; err != nil {
		return fmt.Errorf("stream logs for %q: %w", containerName, err)
	}

	if _, err := p.client.ContainerRemove(ctx, containerID, client.ContainerRemoveOptions{
		Force:         true,
		RemoveVolumes: false,
	}); err != nil {
		return fmt.Errorf("remove container %q: %w", containerName, err)
	}

	if statusCode != 0 {
		return fmt.Errorf("runner container %q exited with status %d", containerName, statusCode)
	}

	return nil
}
