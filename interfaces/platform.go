package platforms

import (
	"context"

	"github.com/enclaveops/testbed/models"
)

// Platform deploys a validated testbed onto a container backend.
type Platform interface {
	Up(ctx context.Context, deployment string, tb *models.Testbed) error
	Down(ctx context.Context, deployment string) error
}
