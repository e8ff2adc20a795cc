package assignment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ultronlabs/missionctl/internal/agent"
	"github.com/ultronlabs/missionctl/internal/event"
	"github.com/ultronlabs/missionctl/internal/task"
	"github.com/ultronlabs/missionctl/pkg/cerr"
)

type Server struct {
	repo     Repository
	tasks    task.Repository
	agents   agent.Repository
	recorder *event.Recorder
}

func NewServer(repo Repository, tasks task.Repository, agents agent.Repository, recorder *event.Recorder) *Server {
	return &Server{
		repo:     repo,
		tasks:    tasks,
		agents:   agents,
		recorder: recorder,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/task/assign", s.handleAssign)
	r.Get("/agent/{agentID}/inbox", s.handleInbox)
}

type assignRequest struct {
	TaskID   string   `json:"taskId"`
	AgentIDs []string `json:"agentIds"`
	Actor    string   `json:"actor"`
}

type assignResponse struct {
	OK            bool `json:"ok"`
	AssignedCount int  `json:"assignedCount"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.TaskID == "" || len(req.AgentIDs) == 0 {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "taskId and agentIds are required", nil)
		return
	}

	t, err := s.tasks.Get(ctx, req.TaskID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	var details []string
	for _, agentID := range req.AgentIDs {
		if _, err := s.agents.Get(ctx, agentID); err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				details = append(details, fmt.Sprintf("unknown agent: %s", agentID))
				continue
			}
			cerr.SetJSONError(ctx, err)
			return
		}
	}
	if len(details) > 0 {
		cerr.SetJSONError(ctx, cerr.NewErrorWithDetails(cerr.InvalidArgument, "validation failed", nil, details))
		return
	}

	actor := req.Actor
	if actor == "" {
		actor = "coordinator"
	}

	assigned := 0
	now := time.Now()
	for _, agentID := range req.AgentIDs {
		created, err := s.repo.Assign(ctx, req.TaskID, agentID, now)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		if !created {
			continue
		}
		assigned++
		s.recorder.Record(ctx, t.ID, event.TypeTaskAssigned, fmt.Sprintf("%s assigned to %s: %s", t.ID, agentID, t.Title), actor)
	}

	cerr.SetJSONResponse(ctx, assignResponse{OK: true, AssignedCount: assigned})
}

// InboxItem is one open assignment joined with its task's current state.
type InboxItem struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Status     task.Status   `json:"status"`
	Priority   task.Priority `json:"priority"`
	Owner      string        `json:"owner"`
	AssignedAt time.Time     `json:"assignedAt"`
	SeenAt     *time.Time    `json:"seenAt"`
	ClaimedAt  *time.Time    `json:"claimedAt"`
	updatedAt  time.Time
}

type inboxResponse struct {
	Tasks []InboxItem `json:"tasks"`
}

// Inbox marks the agent's unseen assignments as seen, then returns the open
// assignments joined with task state: unclaimed work first, most recently
// touched tasks first within each group.
func (s *Server) Inbox(ctx context.Context, agentID string) ([]InboxItem, error) {
	if err := s.repo.MarkSeen(ctx, agentID, time.Now()); err != nil {
		return nil, err
	}

	open, err := s.repo.ListOpenByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	items := make([]InboxItem, 0, len(open))
	for _, a := range open {
		t, err := s.tasks.Get(ctx, a.TaskID)
		if err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				continue
			}
			return nil, err
		}
		items = append(items, InboxItem{
			ID:         t.ID,
			Title:      t.Title,
			Status:     t.Status,
			Priority:   t.Priority,
			Owner:      t.Owner,
			AssignedAt: a.AssignedAt,
			SeenAt:     a.SeenAt,
			ClaimedAt:  a.ClaimedAt,
			updatedAt:  t.UpdatedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := items[i].ClaimedAt != nil, items[j].ClaimedAt != nil
		if ci != cj {
			return !ci
		}
		return items[i].updatedAt.After(items[j].updatedAt)
	})
	return items, nil
}

// InboxSize runs the same mark-seen pass as Inbox but only reports how much
// open work the agent has. Used by the wake flow.
func (s *Server) InboxSize(ctx context.Context, agentID string) (int, error) {
	items, err := s.Inbox(ctx, agentID)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "agentID")
	items, err := s.Inbox(ctx, agentID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, inboxResponse{Tasks: items})
}
