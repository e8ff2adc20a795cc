package task

import "context"

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	// List returns all tasks ordered by UpdatedAt descending.
	List(ctx context.Context) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id string) error
	// ReplaceAll swaps the whole store for an imported snapshot.
	ReplaceAll(ctx context.Context, tasks []*Task) error
}
