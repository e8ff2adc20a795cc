package snapshot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ultronlabs/missionctl/internal/agent"
	"github.com/ultronlabs/missionctl/internal/event"
	"github.com/ultronlabs/missionctl/internal/task"
	"github.com/ultronlabs/missionctl/pkg/cerr"
)

const snapshotVersion = 1

// Server handles whole-store export and import. Import is destructive and
// therefore gated behind an explicit overwrite flag.
type Server struct {
	tasks    task.Repository
	events   event.Repository
	agents   agent.Repository
	recorder *event.Recorder
}

func NewServer(tasks task.Repository, events event.Repository, agents agent.Repository, recorder *event.Recorder) *Server {
	return &Server{
		tasks:    tasks,
		events:   events,
		agents:   agents,
		recorder: recorder,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/export", s.handleExport)
	r.Post("/import", s.handleImport)
}

type exportResponse struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exportedAt"`
	Tasks      []*task.Task   `json:"tasks"`
	Activity   []*event.Event `json:"activity"`
	Agents     []*agent.Agent `json:"agents"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tasks, err := s.tasks.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	events, err := s.events.ListRecent(ctx, 0)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	agents, err := s.agents.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if tasks == nil {
		tasks = []*task.Task{}
	}
	if events == nil {
		events = []*event.Event{}
	}
	if agents == nil {
		agents = []*agent.Agent{}
	}

	cerr.SetJSONResponse(ctx, exportResponse{
		Version:    snapshotVersion,
		ExportedAt: time.Now(),
		Tasks:      tasks,
		Activity:   events,
		Agents:     agents,
	})
}

type importRequest struct {
	Overwrite bool            `json:"overwrite"`
	Tasks     []*task.Task    `json:"tasks"`
	Activity  []*event.Event  `json:"activity"`
	Actor     string          `json:"actor"`
}

type importResponse struct {
	OK       bool `json:"ok"`
	Tasks    int  `json:"tasks"`
	Activity int  `json:"activity"`
}

// handleImport replaces the task store and the event feed wholesale.
// Assignments and heartbeats are untouched; a snapshot restore is about
// work items and their history.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if !req.Overwrite {
		cerr.SetJSONError(ctx, cerr.NewErrorWithDetails(cerr.InvalidArgument, "validation failed", nil,
			[]string{"overwrite=true is required"}))
		return
	}
	if req.Tasks == nil || req.Activity == nil {
		cerr.SetJSONError(ctx, cerr.NewErrorWithDetails(cerr.InvalidArgument, "validation failed", nil,
			[]string{"tasks and activity arrays are required"}))
		return
	}

	if err := s.tasks.ReplaceAll(ctx, req.Tasks); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.events.ReplaceAll(ctx, req.Activity); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	actor := req.Actor
	if actor == "" {
		actor = "operator"
	}
	s.recorder.Record(ctx, "", event.TypeImport,
		fmt.Sprintf("Imported snapshot with %d tasks and %d events", len(req.Tasks), len(req.Activity)), actor)

	cerr.SetJSONResponse(ctx, importResponse{OK: true, Tasks: len(req.Tasks), Activity: len(req.Activity)})
}
