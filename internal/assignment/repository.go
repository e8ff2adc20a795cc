package assignment

import (
	"context"
	"time"
)

type Repository interface {
	// Assign records the pair if it does not exist yet. Returns false when
	// the pair already existed; repeated coordinator calls are a no-op, not
	// an error.
	Assign(ctx context.Context, taskID, agentID string, at time.Time) (bool, error)
	Get(ctx context.Context, taskID, agentID string) (*Assignment, error)
	// ListOpenByAgent returns the agent's assignments with a nil
	// CompletedAt, in no particular order.
	ListOpenByAgent(ctx context.Context, agentID string) ([]*Assignment, error)
	// MarkSeen stamps SeenAt on every open assignment of the agent where it
	// is still nil. Already-seen rows keep their original timestamp.
	MarkSeen(ctx context.Context, agentID string, at time.Time) error
	// Claim stamps ClaimedAt on the pair if and only if it is open and still
	// unclaimed. Returns false when the claim was lost (already claimed,
	// completed, or missing) so a raced caller can move to its next
	// candidate.
	Claim(ctx context.Context, taskID, agentID string, at time.Time) (bool, error)
	// Complete stamps CompletedAt, closing the pair. Idempotent.
	Complete(ctx context.Context, taskID, agentID string, at time.Time) error
	// DeleteByTask removes every assignment of the task (cascade on task
	// deletion).
	DeleteByTask(ctx context.Context, taskID string) error
}
