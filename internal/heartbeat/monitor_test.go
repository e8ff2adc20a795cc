package heartbeat_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultronlabs/missionctl/internal/config"
	"github.com/ultronlabs/missionctl/internal/event"
	eventimpl "github.com/ultronlabs/missionctl/internal/event/repositoryimpl"
	"github.com/ultronlabs/missionctl/internal/heartbeat"
	heartbeatimpl "github.com/ultronlabs/missionctl/internal/heartbeat/repositoryimpl"
	"github.com/ultronlabs/missionctl/internal/task"
	taskimpl "github.com/ultronlabs/missionctl/internal/task/repositoryimpl"
	"github.com/ultronlabs/missionctl/pkg/storage"
)

func newMonitor(t *testing.T, env *config.MonitorEnv) (*heartbeat.Monitor, task.Repository, heartbeat.Repository, event.Repository) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	tasks := taskimpl.NewYAMLRepository(store)
	heartbeats := heartbeatimpl.NewYAMLRepository(store)
	events := eventimpl.NewYAMLRepository(store)
	return heartbeat.NewMonitor(tasks, heartbeats, events, env), tasks, heartbeats, events
}

func addTask(t *testing.T, repo task.Repository, status task.Status, updatedAt time.Time) *task.Task {
	t.Helper()
	tsk := &task.Task{
		ID:        task.NewID(),
		Title:     "monitor fixture",
		Status:    status,
		Priority:  task.PriorityP2,
		Owner:     "ultron",
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	require.NoError(t, repo.Create(context.Background(), tsk))
	return tsk
}

func TestMonitorMetricsCounts(t *testing.T) {
	env := &config.MonitorEnv{StaleOpenAfter: 24 * time.Hour, HeartbeatLimit: 50}
	monitor, tasks, heartbeats, _ := newMonitor(t, env)
	ctx := context.Background()

	now := time.Now()
	addTask(t, tasks, task.StatusInbox, now)
	addTask(t, tasks, task.StatusInProgress, now.Add(-48*time.Hour))
	addTask(t, tasks, task.StatusBlocked, now)
	addTask(t, tasks, task.StatusDone, now)

	require.NoError(t, heartbeats.Append(ctx, &heartbeat.Run{
		ID:        ulid.Make().String(),
		AgentID:   "codi",
		Status:    heartbeat.StatusOK,
		Summary:   heartbeat.SummaryNoActionable,
		CreatedAt: now,
	}))

	metrics, err := monitor.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, metrics.Tasks.Open)
	assert.Equal(t, 1, metrics.Tasks.Done)
	assert.Equal(t, 1, metrics.StaleOpen)
	assert.Equal(t, 1, metrics.EscalationCount)
	require.Len(t, metrics.LatestHeartbeats, 1)
	assert.Equal(t, "codi", metrics.LatestHeartbeats[0].AgentID)
	assert.Equal(t, heartbeat.SummaryNoActionable, metrics.LatestHeartbeats[0].Summary)
}

func TestMonitorHeartbeatLimit(t *testing.T) {
	env := &config.MonitorEnv{StaleOpenAfter: 24 * time.Hour, HeartbeatLimit: 3}
	monitor, _, heartbeats, _ := newMonitor(t, env)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, heartbeats.Append(ctx, &heartbeat.Run{
			ID:        ulid.Make().String(),
			AgentID:   "codi",
			Status:    heartbeat.StatusOK,
			CreatedAt: time.Now(),
		}))
	}

	metrics, err := monitor.Metrics(ctx)
	require.NoError(t, err)
	assert.Len(t, metrics.LatestHeartbeats, 3)
}

func TestMonitorHeartbeatsMostRecentFirst(t *testing.T) {
	env := &config.MonitorEnv{StaleOpenAfter: 24 * time.Hour, HeartbeatLimit: 50}
	monitor, _, heartbeats, _ := newMonitor(t, env)
	ctx := context.Background()

	for _, agentID := range []string{"first", "second", "third"} {
		require.NoError(t, heartbeats.Append(ctx, &heartbeat.Run{
			ID:        ulid.Make().String(),
			AgentID:   agentID,
			Status:    heartbeat.StatusOK,
			CreatedAt: time.Now(),
		}))
	}

	metrics, err := monitor.Metrics(ctx)
	require.NoError(t, err)
	require.Len(t, metrics.LatestHeartbeats, 3)
	assert.Equal(t, "third", metrics.LatestHeartbeats[0].AgentID)
	assert.Equal(t, "first", metrics.LatestHeartbeats[2].AgentID)
}

func TestMonitorEscalations(t *testing.T) {
	env := &config.MonitorEnv{StaleOpenAfter: 24 * time.Hour, HeartbeatLimit: 50}
	monitor, tasks, _, events := newMonitor(t, env)
	ctx := context.Background()

	blocked := addTask(t, tasks, task.StatusBlocked, time.Now())
	addTask(t, tasks, task.StatusInbox, time.Now())
	require.NoError(t, events.Append(ctx, &event.Event{
		ID:        ulid.Make().String(),
		TaskID:    blocked.ID,
		Type:      event.TypeTaskEscalated,
		Message:   "stuck on credentials",
		Actor:     "watchdog",
		CreatedAt: time.Now(),
	}))
	require.NoError(t, events.Append(ctx, &event.Event{
		ID:        ulid.Make().String(),
		TaskID:    blocked.ID,
		Type:      event.TypeTaskUpdated,
		Message:   "status -> blocked",
		Actor:     "codi",
		CreatedAt: time.Now(),
	}))

	items, err := monitor.Escalations(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	kinds := map[string]int{}
	for _, item := range items {
		kinds[item.Kind]++
		assert.Equal(t, blocked.ID, item.TaskID)
	}
	assert.Equal(t, 1, kinds["blocked_task"])
	assert.Equal(t, 1, kinds["escalation_event"])
}
