package heartbeat

import "context"

type Repository interface {
	Append(ctx context.Context, run *Run) error
	// ListRecent returns at most limit runs, most recent first.
	ListRecent(ctx context.Context, limit int) ([]*Run, error)
}
