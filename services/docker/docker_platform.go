package docker

import (
	"context"

	"github.com/google/uuid"
	"github.com/moby/moby/client"
	"go.uber.org/zap"

	"github.com/enclaveops/testbed/models"
)

// DockerPlatform drives a testbed deployment against the Docker Engine API.
type DockerPlatform struct {
	client *client.Client
	log    *zap.Logger
}

// NewDockerPlatform initializes the platform from environment variables
// (e.g. DOCKER_HOST) with API version negotiation.
func NewDockerPlatform(log *zap.Logger) (*DockerPlatform, error) {
	c, err := client.New(
		client.FromEnv,
	)
	if err != nil {
		return nil, err
	}

	return &DockerPlatform{
		client: c,
		log:    log,
	}, nil
}

// Up deploys the testbed: host pre-flight, network and named volumes, then
// services in dependency order. Each invocation gets a fresh run id so
// objects from different runs of the same deployment can be told apart.
func (p *DockerPlatform) Up(ctx context.Context, deployment string, tb *models.Testbed) error {
	run := uuid.New()

	log := p.log.Named("up").With(
		zap.String("deployment", deployment),
		zap.String("run", run.String()),
	)
	log.Info("deploying testbed", zap.Int("services", len(tb.Services)))

	if err := p.CheckHost(ctx, tb); err != nil {
		return err
	}
	if err := p.NetworkSetup(ctx, deployment, run); err != nil {
		return err
	}
	if err := p.VolumeSetup(ctx, deployment, run, tb); err != nil {
		return err
	}
	if err := p.ServiceSetup(ctx, deployment, run, tb); err != nil {
		return err
	}

	log.Info("testbed deployed")
	return nil
}

// Down removes every container, volume and network carrying the
// deployment label.
func (p *DockerPlatform) Down(ctx context.Context, deployment string) error {
	return p.Teardown(ctx, deployment)
}
