package claims

import (
	"context"
	"time"

	"github.com/bonapart3/claimagent-sub002/internal/lifecycle"
	"github.com/bonapart3/claimagent-sub002/internal/snapshot"
	"github.com/google/uuid"
)

// RepositoryInterface defines claim store operations used by the service.
// The engine itself never blocks on I/O inside scoring; all persistence
// happens here, in the orchestrating service.
type RepositoryInterface interface {
	// GetSnapshot assembles the immutable claim view for one decision
	// cycle, stamped with the given as-of evaluation clock
	GetSnapshot(ctx context.Context, claimID uuid.UUID, asOf time.Time) (*snapshot.ClaimSnapshot, error)

	// GetState returns the lifecycle state of a claim
	GetState(ctx context.Context, claimID uuid.UUID) (lifecycle.ClaimState, error)

	// UpdateState persists a lifecycle state using an optimistic version
	// check; concurrent re-evaluations of the same claim serialize here
	UpdateState(ctx context.Context, state lifecycle.ClaimState, expectedVersion int) error

	// SaveDecision persists the artifacts of one decision cycle
	SaveDecision(ctx context.Context, artifacts *DecisionArtifacts) error

	// GetLatestDecision returns the most recent decision artifacts
	GetLatestDecision(ctx context.Context, claimID uuid.UUID) (*DecisionArtifacts, error)
}
