package event

import "time"

// Well-known event types. The feed is free-form; these are the types the
// server itself emits.
const (
	TypeTaskCreated          = "task_created"
	TypeTaskUpdated          = "task_updated"
	TypeTaskNote             = "task_note"
	TypeTaskDeleted          = "task_deleted"
	TypeTaskAssigned         = "task_assigned"
	TypeTaskClaimed          = "task_claimed"
	TypeTaskBlocked          = "task_blocked"
	TypeTaskEscalated        = "task_escalated"
	TypeOrchestrationStarted = "orchestration_started"
	TypeStandup              = "standup"
	TypeImport               = "import"
)

// Event is one immutable row of the activity feed. Events survive deletion
// of the task they reference; the feed is the audit trail.
type Event struct {
	ID        string    `yaml:"id"`
	TaskID    string    `yaml:"task_id,omitempty"`
	Type      string    `yaml:"type"`
	Message   string    `yaml:"message"`
	Actor     string    `yaml:"actor"`
	CreatedAt time.Time `yaml:"created_at"`
}
