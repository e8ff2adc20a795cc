package event

import "context"

type Repository interface {
	Append(ctx context.Context, e *Event) error
	// ListRecent returns at most limit events, most recent first.
	ListRecent(ctx context.Context, limit int) ([]*Event, error)
	// ReplaceAll swaps the whole feed for an imported snapshot.
	ReplaceAll(ctx context.Context, events []*Event) error
}
