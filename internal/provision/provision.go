// Package provision allocates the backing surfaces that sessions and ballots
// live on. A session has no id until its surface exists.
package provision

import (
	"context"

	"github.com/google/uuid"
)

type Provisioner interface {
	// ProvisionSurface creates the recruiting surface for a new session and
	// returns its id.
	ProvisionSurface(ctx context.Context, title, hostID string) (string, error)
	// BallotSurface allocates the message surface a ballot is scoped to.
	BallotSurface(ctx context.Context, sessionID string) (string, error)
}

// UUID provisions opaque uuid surface ids. Real channel provisioning on the
// chat platform sits behind the same interface.
type UUID struct{}

func (UUID) ProvisionSurface(ctx context.Context, title, hostID string) (string, error) {
	return uuid.NewString(), nil
}

func (UUID) BallotSurface(ctx context.Context, sessionID string) (string, error) {
	return uuid.NewString(), nil
}
