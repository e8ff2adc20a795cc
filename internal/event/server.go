package event

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ultronlabs/missionctl/pkg/cerr"
)

const defaultFeedLimit = 300

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/activity", s.handleActivity)
}

type eventView struct {
	TaskID  string    `json:"taskId,omitempty"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Actor   string    `json:"actor"`
	At      time.Time `json:"at"`
}

type activityResponse struct {
	Events []eventView `json:"events"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	events, err := s.repo.ListRecent(ctx, defaultFeedLimit)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, eventView{
			TaskID:  e.TaskID,
			Type:    e.Type,
			Message: e.Message,
			Actor:   e.Actor,
			At:      e.CreatedAt,
		})
	}
	cerr.SetJSONResponse(ctx, activityResponse{Events: views})
}
