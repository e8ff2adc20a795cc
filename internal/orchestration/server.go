package orchestration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/ultronlabs/missionctl/internal/event"
	"github.com/ultronlabs/missionctl/internal/task"
	"github.com/ultronlabs/missionctl/pkg/cerr"
)

type Server struct {
	policy   *Policy
	tasks    task.Repository
	recorder *event.Recorder
}

func NewServer(policy *Policy, tasks task.Repository, recorder *event.Recorder) *Server {
	return &Server{
		policy:   policy,
		tasks:    tasks,
		recorder: recorder,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/orchestration/templates", s.handleTemplates)
	r.Post("/orchestrate", s.handleOrchestrate)
}

type templateView struct {
	Name           string   `json:"name"`
	Workers        []string `json:"workers"`
	MaxWorkers     int      `json:"maxWorkers"`
	TimeoutMinutes int      `json:"timeoutMinutes"`
	Evidence       []string `json:"evidence"`
}

type templatesResponse struct {
	Version   string         `json:"version"`
	Defaults  Defaults       `json:"defaults"`
	Templates []templateView `json:"templates"`
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views := make([]templateView, 0, len(s.policy.Templates))
	for name, tpl := range s.policy.Templates {
		views = append(views, templateView{
			Name:           name,
			Workers:        tpl.Workers,
			MaxWorkers:     tpl.MaxWorkers,
			TimeoutMinutes: tpl.TimeoutMinutes,
			Evidence:       tpl.Evidence,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	cerr.SetJSONResponse(ctx, templatesResponse{
		Version:   s.policy.Version,
		Defaults:  s.policy.Defaults,
		Templates: views,
	})
}

type orchestrateRequest struct {
	TaskID   string `json:"taskId"`
	Template string `json:"template"`
	Actor    string `json:"actor"`
}

type orchestrateResponse struct {
	OK   bool  `json:"ok"`
	Plan *Plan `json:"plan"`
}

func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req orchestrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.TaskID == "" || req.Template == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "taskId and template are required", nil)
		return
	}

	t, err := s.tasks.Get(ctx, req.TaskID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	plan, err := s.policy.BuildPlan(t.ID, req.Template, t.Title)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	actor := req.Actor
	if actor == "" {
		actor = s.policy.Defaults.Orchestrator
	}
	s.recorder.Record(ctx, t.ID, event.TypeOrchestrationStarted,
		fmt.Sprintf("template %s, %d workers", req.Template, len(plan.Workers)), actor)

	cerr.SetJSONResponse(ctx, orchestrateResponse{OK: true, Plan: plan})
}
