package assignment

import "time"

// Assignment binds one task to one agent. The (TaskID, AgentID) pair is the
// identity; an agent cannot hold the same task twice. SeenAt and ClaimedAt
// move nil -> timestamp exactly once and never reset; a non-nil CompletedAt
// freezes the pair out of inbox and claim consideration.
type Assignment struct {
	TaskID      string     `yaml:"task_id"`
	AgentID     string     `yaml:"agent_id"`
	AssignedAt  time.Time  `yaml:"assigned_at"`
	SeenAt      *time.Time `yaml:"seen_at,omitempty"`
	ClaimedAt   *time.Time `yaml:"claimed_at,omitempty"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty"`
}

// Open reports whether the assignment still belongs in the agent's inbox.
func (a *Assignment) Open() bool {
	return a.CompletedAt == nil
}

// Claimed reports whether the assignment has been claimed.
func (a *Assignment) Claimed() bool {
	return a.ClaimedAt != nil
}
