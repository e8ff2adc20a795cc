package agent_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultronlabs/missionctl/internal/agent"
	agentimpl "github.com/ultronlabs/missionctl/internal/agent/repositoryimpl"
	"github.com/ultronlabs/missionctl/internal/assignment"
	assignmentimpl "github.com/ultronlabs/missionctl/internal/assignment/repositoryimpl"
	"github.com/ultronlabs/missionctl/internal/claim"
	"github.com/ultronlabs/missionctl/internal/config"
	"github.com/ultronlabs/missionctl/internal/event"
	eventimpl "github.com/ultronlabs/missionctl/internal/event/repositoryimpl"
	"github.com/ultronlabs/missionctl/internal/eventbus"
	"github.com/ultronlabs/missionctl/internal/heartbeat"
	heartbeatimpl "github.com/ultronlabs/missionctl/internal/heartbeat/repositoryimpl"
	"github.com/ultronlabs/missionctl/internal/task"
	taskimpl "github.com/ultronlabs/missionctl/internal/task/repositoryimpl"
	"github.com/ultronlabs/missionctl/pkg/cerr"
	"github.com/ultronlabs/missionctl/pkg/storage"
)

// wakeFixture wires the full wake path against local storage: assignment
// inbox, claim engine, heartbeat recording, and the event feed.
type wakeFixture struct {
	agents        agent.Repository
	tasks         task.Repository
	assignments   assignment.Repository
	heartbeats    heartbeat.Repository
	events        event.Repository
	assignSrv     *assignment.Server
	engine        *claim.Engine
	heartbeatSrv  *heartbeat.Server
	recorder      *event.Recorder
}

func newWakeFixture(t *testing.T) *wakeFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	f := &wakeFixture{
		agents:      agentimpl.NewYAMLRepository(store),
		tasks:       taskimpl.NewYAMLRepository(store),
		assignments: assignmentimpl.NewYAMLRepository(store),
		heartbeats:  heartbeatimpl.NewYAMLRepository(store),
		events:      eventimpl.NewYAMLRepository(store),
	}
	f.recorder = event.NewRecorder(f.events, eventbus.New())
	f.assignSrv = assignment.NewServer(f.assignments, f.tasks, f.agents, f.recorder)
	f.engine = claim.NewEngine(f.assignments, f.tasks)
	monitorEnv := &config.MonitorEnv{StaleOpenAfter: 24 * time.Hour, HeartbeatLimit: 50}
	f.heartbeatSrv = heartbeat.NewServer(f.heartbeats, heartbeat.NewMonitor(f.tasks, f.heartbeats, f.events, monitorEnv))
	return f
}

func (f *wakeFixture) server() *agent.Server {
	return agent.NewServer(f.agents, f.engine, f.assignSrv, f.heartbeatSrv, f.recorder)
}

// router mounts the agent routes behind the JSON response middleware, the
// same way internal/server.go assembles them.
func (f *wakeFixture) router() http.Handler {
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	f.server().RegisterRoutes(r)
	return r
}

func postWake(t *testing.T, h http.Handler, agentID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/agent/"+agentID+"/wake", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func (f *wakeFixture) addAgent(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.agents.Upsert(context.Background(), &agent.Agent{
		ID:        id,
		Role:      "worker",
		Active:    true,
		CreatedAt: time.Now(),
	}))
}

func (f *wakeFixture) addAssignedTask(t *testing.T, title string, priority task.Priority, agentID string, assignedAt time.Time) *task.Task {
	t.Helper()
	ctx := context.Background()
	tsk := &task.Task{
		ID:        task.NewID(),
		Title:     title,
		Status:    task.StatusAssigned,
		Priority:  priority,
		Owner:     "ultron",
		CreatedAt: assignedAt,
		UpdatedAt: assignedAt,
	}
	require.NoError(t, f.tasks.Create(ctx, tsk))
	created, err := f.assignments.Assign(ctx, tsk.ID, agentID, assignedAt)
	require.NoError(t, err)
	require.True(t, created)
	return tsk
}

func TestWakeClaimsHighestPriorityFirst(t *testing.T) {
	f := newWakeFixture(t)
	ctx := context.Background()
	f.addAgent(t, "codi")

	now := time.Now()
	f.addAssignedTask(t, "routine cleanup", task.PriorityP2, "codi", now.Add(-2*time.Hour))
	urgent := f.addAssignedTask(t, "prod is down", task.PriorityP0, "codi", now)

	claimed, err := f.engine.ClaimNext(ctx, "codi")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, urgent.ID, claimed.ID)

	// The claim must stick: the same task is not claimable twice.
	a, err := f.assignments.Get(ctx, urgent.ID, "codi")
	require.NoError(t, err)
	require.NotNil(t, a.ClaimedAt)
}

func TestWakeCycle(t *testing.T) {
	f := newWakeFixture(t)
	ctx := context.Background()
	f.addAgent(t, "codi")
	tsk := f.addAssignedTask(t, "write release notes", task.PriorityP1, "codi", time.Now())

	// First wake: inbox is marked seen and the task is claimed.
	count, err := f.assignSrv.InboxSize(ctx, "codi")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	claimed, err := f.engine.ClaimNext(ctx, "codi")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.NoError(t, f.heartbeatSrv.Record(ctx, "codi", heartbeat.StatusOK, "claimed "+claimed.ID))

	a, err := f.assignments.Get(ctx, tsk.ID, "codi")
	require.NoError(t, err)
	assert.NotNil(t, a.SeenAt)
	assert.NotNil(t, a.ClaimedAt)

	// Second wake: nothing left to claim, heartbeat records the empty run.
	again, err := f.engine.ClaimNext(ctx, "codi")
	require.NoError(t, err)
	assert.Nil(t, again)
	require.NoError(t, f.heartbeatSrv.Record(ctx, "codi", heartbeat.StatusOK, heartbeat.SummaryNoActionable))

	runs, err := f.heartbeats.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, heartbeat.SummaryNoActionable, runs[0].Summary)
	assert.Equal(t, "claimed "+tsk.ID, runs[1].Summary)
}

func TestWakeTwoAgentsClaimIndependently(t *testing.T) {
	f := newWakeFixture(t)
	ctx := context.Background()
	f.addAgent(t, "codi")
	f.addAgent(t, "scout")

	now := time.Now()
	shared := f.addAssignedTask(t, "shared investigation", task.PriorityP1, "codi", now)
	created, err := f.assignments.Assign(ctx, shared.ID, "scout", now)
	require.NoError(t, err)
	require.True(t, created)

	first, err := f.engine.ClaimNext(ctx, "codi")
	require.NoError(t, err)
	require.NotNil(t, first)

	// The pair (task, agent) claims independently: scout still has an
	// unclaimed assignment on the same task.
	second, err := f.engine.ClaimNext(ctx, "scout")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, shared.ID, second.ID)
}

func TestWakeHandler(t *testing.T) {
	f := newWakeFixture(t)
	f.addAgent(t, "codi")
	tsk := f.addAssignedTask(t, "triage the queue", task.PriorityP1, "codi", time.Now())
	h := f.router()

	type wakeBody struct {
		OK   bool `json:"ok"`
		Task *struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Priority string `json:"priority"`
		} `json:"task"`
		InboxCount int `json:"inboxCount"`
	}

	rec := postWake(t, h, "codi")
	require.Equal(t, http.StatusOK, rec.Code)
	var first wakeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.True(t, first.OK)
	require.NotNil(t, first.Task)
	assert.Equal(t, tsk.ID, first.Task.ID)
	assert.Equal(t, "triage the queue", first.Task.Title)
	// The inbox count is taken before the claim.
	assert.Equal(t, 1, first.InboxCount)

	// Second wake: nothing left to claim, task comes back null.
	rec = postWake(t, h, "codi")
	require.Equal(t, http.StatusOK, rec.Code)
	var second wakeBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.OK)
	assert.Nil(t, second.Task)

	runs, err := f.heartbeats.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, heartbeat.SummaryNoActionable, runs[0].Summary)
	assert.Equal(t, "claimed "+tsk.ID, runs[1].Summary)
}

func TestWakeHandlerUnknownAgent(t *testing.T) {
	f := newWakeFixture(t)
	rec := postWake(t, f.router(), "ghost")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
