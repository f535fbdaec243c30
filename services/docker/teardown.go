package docker

import (
	"context"
	"fmt"

	"github.com/containerd/errdefs"
	"go.uber.org/zap"

	"github.com/moby/moby/client"
)

// TearDownServices stops and removes all containers carrying the
// deployment label.
func (p *DockerPlatform) TearDownServices(ctx context.Context, deployment string) error {
	f := make(client.Filters).
		Add("label", LabelDeployment+"="+deployment)

	containers, err := p.client.ContainerList(ctx, client.ContainerListOptions{
		All:     true,
		Filters: f,
	})
	if err != nil {
		return fmt.Errorf("list deployment containers (deployment=%s): %w", deployment, err)
	}

	for _, c := range containers.Items {
		// Stop (best-effort) then remove
		_, _ = p.client.ContainerStop(ctx, c.ID, client.ContainerStopOptions{})
		_, err = p.client.ContainerRemove(ctx, c.ID, client.ContainerRemoveOptions{
			Force:         true,
			RemoveVolumes: false,
		})
		if err != nil && !errdefs.IsNotFound(err) {
			return fmt.Errorf("remove container %q: %w", c.ID, err)
		}
		p.log.Info("container removed",
			zap.String("deployment", deployment),
			zap.String("service", c.Labels[LabelService]),
		)
	}

	return nil
}

// TearDownVolumes removes all named volumes carrying the deployment label.
func (p *DockerPlatform) TearDownVolumes(ctx context.Context, deployment string) error {
	f := make(client.Filters).
		Add("label", LabelDeployment+"="+deployment)

	vols, err := p.client.VolumeList(ctx, client.VolumeListOptions{
		Filters: f,
	})
	if err != nil {
		return fmt.Errorf("list deployment volumes (deployment=%s): %w", deployment, err)
	}

	for _, v := range vols.Items {
		if v.Name == "" {
			continue
		}

		if _, err := p.client.VolumeRemove(ctx, v.Name, client.VolumeRemoveOptions{}); err != nil {
			// Idempotent: if it vanished, ignore.
			if errdefs.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("remove volume %q: %w", v.Name, err)
		}
	}

	return nil
}

// TearDownNetworks removes all networks carrying the deployment label.
func (p *DockerPlatform) TearDownNetworks(ctx context.Context, deployment string) error {
	f := make(client.Filters).
		Add("label", LabelDeployment+"="+deployment)

	nets, err := p.client.NetworkList(ctx, client.NetworkListOptions{
		Filters: f,
	})
	if err != nil {
		return fmt.Errorf("list deployment networks (deployment=%s): %w", deployment, err)
	}

	for _, n := range nets.Items {
		if n.Name == "" || n.ID == "" {
			continue
		}

		// Prefer removing by ID to avoid name collisions.
		if _, err := p.client.NetworkRemove(ctx, n.ID, client.NetworkRemoveOptions{}); err != nil {
			// Idempotent: if it vanished, ignore.
			if errdefs.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("remove network %q (%s): %w", n.Name, n.ID, err)
		}
	}

	return nil
}

// Teardown removes containers, then volumes, then networks.
func (p *DockerPlatform) Teardown(ctx context.Context, deployment string) error {
	if err := p.TearDownServices(ctx, deployment); err != nil {
		return err
	}
	if err := p.TearDownVolumes(ctx, deployment); err != nil {
		return err
	}
	if err := p.TearDownNetworks(ctx, deployment); err != nil {
		return err
	}

	p.log.Info("testbed removed", zap.String("deployment", deployment))
	return nil
}
