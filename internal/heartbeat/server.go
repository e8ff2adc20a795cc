package heartbeat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/ultronlabs/missionctl/pkg/cerr"
)

type Server struct {
	repo    Repository
	monitor *Monitor
}

func NewServer(repo Repository, monitor *Monitor) *Server {
	return &Server{repo: repo, monitor: monitor}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/agent/{agentID}/heartbeat", s.handleRecord)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/escalations", s.handleEscalations)
}

// Record appends one heartbeat run. The only validation is a non-empty
// agent id; status and summary are free-form health signals.
func (s *Server) Record(ctx context.Context, agentID, status, summary string) error {
	if agentID == "" {
		return cerr.NewError(cerr.InvalidArgument, "agentId is required", nil)
	}
	return s.repo.Append(ctx, &Run{
		ID:        ulid.Make().String(),
		AgentID:   agentID,
		Status:    status,
		Summary:   summary,
		CreatedAt: time.Now(),
	})
}

type recordRequest struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.Status == "" {
		req.Status = StatusOK
	}
	if err := s.Record(ctx, chi.URLParam(r, "agentID"), req.Status, req.Summary); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, okResponse{OK: true})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metrics, err := s.monitor.Metrics(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, metrics)
}

type escalationsResponse struct {
	Items []EscalationItem `json:"items"`
}

func (s *Server) handleEscalations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := s.monitor.Escalations(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if items == nil {
		items = []EscalationItem{}
	}
	cerr.SetJSONResponse(ctx, escalationsResponse{Items: items})
}
