package agent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ultronlabs/missionctl/internal/event"
	"github.com/ultronlabs/missionctl/internal/heartbeat"
	"github.com/ultronlabs/missionctl/internal/task"
	"github.com/ultronlabs/missionctl/pkg/cerr"
	"github.com/ultronlabs/missionctl/pkg/clog"
)

// Claimer picks and claims the next actionable task for an agent. A nil
// task with nil error means the agent has nothing claimable.
type Claimer interface {
	ClaimNext(ctx context.Context, agentID string) (*task.Task, error)
}

// InboxReader marks an agent's open assignments seen and returns the inbox
// view. The server only needs the count here.
type InboxReader interface {
	InboxSize(ctx context.Context, agentID string) (int, error)
}

// HeartbeatRecorder appends one heartbeat run for an agent.
type HeartbeatRecorder interface {
	Record(ctx context.Context, agentID, status, summary string) error
}

type Server struct {
	repo       Repository
	claimer    Claimer
	inbox      InboxReader
	heartbeats HeartbeatRecorder
	recorder   *event.Recorder
}

func NewServer(repo Repository, claimer Claimer, inbox InboxReader, heartbeats HeartbeatRecorder, recorder *event.Recorder) *Server {
	return &Server{
		repo:       repo,
		claimer:    claimer,
		inbox:      inbox,
		heartbeats: heartbeats,
		recorder:   recorder,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/agents", s.handleList)
	r.Post("/agent/{agentID}/claim-next", s.handleClaimNext)
	r.Post("/agent/{agentID}/wake", s.handleWake)
}

type agentView struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type listResponse struct {
	Agents []agentView `json:"agents"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agents, err := s.repo.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	views := make([]agentView, 0, len(agents))
	for _, a := range agents {
		views = append(views, agentView{
			ID:        a.ID,
			Role:      a.Role,
			Active:    a.Active,
			CreatedAt: a.CreatedAt,
		})
	}
	cerr.SetJSONResponse(ctx, listResponse{Agents: views})
}

type claimedTaskView struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Status   task.Status   `json:"status"`
	Priority task.Priority `json:"priority"`
	Owner    string        `json:"owner"`
}

type claimNextResponse struct {
	OK   bool             `json:"ok"`
	Task *claimedTaskView `json:"task"`
}

func (s *Server) handleClaimNext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "agentID")

	claimed, err := s.claimer.ClaimNext(ctx, agentID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if claimed != nil {
		s.recordClaim(ctx, claimed, agentID)
	}
	cerr.SetJSONResponse(ctx, claimNextResponse{OK: true, Task: taskViewOrNil(claimed)})
}

type wakeResponse struct {
	OK         bool             `json:"ok"`
	Task       *claimedTaskView `json:"task"`
	InboxCount int              `json:"inboxCount"`
}

// handleWake runs one full wake cycle: mark the inbox seen, try to claim
// the next task, and always record a heartbeat describing the outcome.
// An empty inbox is a normal wake, not an error.
func (s *Server) handleWake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "agentID")
	clog.AddAttribute(ctx, "agent_id", agentID)

	if _, err := s.repo.Get(ctx, agentID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	inboxCount, err := s.inbox.InboxSize(ctx, agentID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	claimed, err := s.claimer.ClaimNext(ctx, agentID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	summary := summaryFor(claimed)
	if err := s.heartbeats.Record(ctx, agentID, heartbeat.StatusOK, summary); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if claimed != nil {
		s.recordClaim(ctx, claimed, agentID)
	}

	cerr.SetJSONResponse(ctx, wakeResponse{
		OK:         true,
		Task:       taskViewOrNil(claimed),
		InboxCount: inboxCount,
	})
}

func summaryFor(claimed *task.Task) string {
	if claimed == nil {
		return heartbeat.SummaryNoActionable
	}
	return fmt.Sprintf("claimed %s", claimed.ID)
}

func (s *Server) recordClaim(ctx context.Context, claimed *task.Task, agentID string) {
	s.recorder.Record(ctx, claimed.ID, event.TypeTaskClaimed, fmt.Sprintf("claimed by %s", agentID), agentID)
}

func taskViewOrNil(t *task.Task) *claimedTaskView {
	if t == nil {
		return nil
	}
	return &claimedTaskView{
		ID:       t.ID,
		Title:    t.Title,
		Status:   t.Status,
		Priority: t.Priority,
		Owner:    t.Owner,
	}
}
