package heartbeat

import "time"

const (
	// StatusOK is the status a normal wake records regardless of whether
	// work was claimed.
	StatusOK = "ok"
	// SummaryNoActionable is recorded when a wake found nothing to claim.
	SummaryNoActionable = "no_actionable_tasks"
)

// Run is an immutable audit record of one agent wake cycle.
type Run struct {
	ID        string    `yaml:"id"`
	AgentID   string    `yaml:"agent_id"`
	Status    string    `yaml:"status"`
	Summary   string    `yaml:"summary"`
	CreatedAt time.Time `yaml:"created_at"`
}
