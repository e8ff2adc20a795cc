package heartbeat

import (
	"context"
	"time"

	"github.com/ultronlabs/missionctl/internal/config"
	"github.com/ultronlabs/missionctl/internal/event"
	"github.com/ultronlabs/missionctl/internal/task"
)

// Monitor derives health signals from heartbeat history, task ages, and the
// event feed. Every value is recomputed on demand; the monitor never mutates
// task, assignment, or heartbeat state.
type Monitor struct {
	tasks      task.Repository
	heartbeats Repository
	events     event.Repository
	env        *config.MonitorEnv
}

func NewMonitor(tasks task.Repository, heartbeats Repository, events event.Repository, env *config.MonitorEnv) *Monitor {
	return &Monitor{
		tasks:      tasks,
		heartbeats: heartbeats,
		events:     events,
		env:        env,
	}
}

type TaskCounts struct {
	Open int `json:"open"`
	Done int `json:"done"`
}

type HeartbeatView struct {
	AgentID string    `json:"agentId"`
	Status  string    `json:"status"`
	Summary string    `json:"summary"`
	At      time.Time `json:"at"`
}

type Metrics struct {
	Tasks            TaskCounts      `json:"tasks"`
	LatestHeartbeats []HeartbeatView `json:"latestHeartbeats"`
	EscalationCount  int             `json:"escalationCount"`
	StaleOpen        int             `json:"staleOpen"`
}

// Metrics computes the watchdog projections. escalationCount is the count of
// tasks currently in blocked status; the richer material (escalation events,
// the blocked tasks themselves) is exposed by Escalations for policies that
// want their own rule.
func (m *Monitor) Metrics(ctx context.Context) (*Metrics, error) {
	tasks, err := m.tasks.List(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var counts TaskCounts
	staleOpen := 0
	escalations := 0
	for _, t := range tasks {
		if t.Status == task.StatusDone {
			counts.Done++
			continue
		}
		counts.Open++
		if now.Sub(t.UpdatedAt) > m.env.StaleOpenAfter {
			staleOpen++
		}
		if t.Status == task.StatusBlocked {
			escalations++
		}
	}

	runs, err := m.heartbeats.ListRecent(ctx, m.env.HeartbeatLimit)
	if err != nil {
		return nil, err
	}
	views := make([]HeartbeatView, 0, len(runs))
	for _, run := range runs {
		views = append(views, HeartbeatView{
			AgentID: run.AgentID,
			Status:  run.Status,
			Summary: run.Summary,
			At:      run.CreatedAt,
		})
	}

	return &Metrics{
		Tasks:            counts,
		LatestHeartbeats: views,
		EscalationCount:  escalations,
		StaleOpen:        staleOpen,
	}, nil
}

type EscalationItem struct {
	Kind    string    `json:"kind"` // "blocked_task" or "escalation_event"
	TaskID  string    `json:"taskId,omitempty"`
	Title   string    `json:"title,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

const escalationEventScan = 300

// Escalations returns the raw escalation material: tasks currently blocked
// followed by recent escalation-typed events.
func (m *Monitor) Escalations(ctx context.Context) ([]EscalationItem, error) {
	tasks, err := m.tasks.List(ctx)
	if err != nil {
		return nil, err
	}

	var items []EscalationItem
	for _, t := range tasks {
		if t.Status != task.StatusBlocked {
			continue
		}
		items = append(items, EscalationItem{
			Kind:   "blocked_task",
			TaskID: t.ID,
			Title:  t.Title,
			At:     t.UpdatedAt,
		})
	}

	events, err := m.events.ListRecent(ctx, escalationEventScan)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if e.Type != event.TypeTaskEscalated {
			continue
		}
		items = append(items, EscalationItem{
			Kind:    "escalation_event",
			TaskID:  e.TaskID,
			Message: e.Message,
			At:      e.CreatedAt,
		})
	}
	return items, nil
}
