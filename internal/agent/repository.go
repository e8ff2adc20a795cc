package agent

import "context"

type Repository interface {
	// Upsert creates the agent or refreshes its role/active flag. CreatedAt
	// is preserved on update.
	Upsert(ctx context.Context, a *Agent) error
	Get(ctx context.Context, id string) (*Agent, error)
	// Exists reports whether the id names a registered agent. Storage
	// errors other than not-found are returned as-is.
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*Agent, error)
}
