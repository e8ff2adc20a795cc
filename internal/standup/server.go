package standup

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ultronlabs/missionctl/internal/event"
	"github.com/ultronlabs/missionctl/internal/task"
	"github.com/ultronlabs/missionctl/pkg/cerr"
	"github.com/ultronlabs/missionctl/pkg/storage"
)

const reportKey = "reports/standup-latest.md"

type Server struct {
	tasks    task.Repository
	storage  storage.Storage
	recorder *event.Recorder
}

func NewServer(tasks task.Repository, store storage.Storage, recorder *event.Recorder) *Server {
	return &Server{
		tasks:    tasks,
		storage:  store,
		recorder: recorder,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/standup", s.handleStandup)
}

type standupResponse struct {
	OK      bool   `json:"ok"`
	Standup string `json:"standup"`
}

func (s *Server) handleStandup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tasks, err := s.tasks.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	text := Render(tasks, time.Now())
	if err := s.storage.Write(ctx, reportKey, []byte(text+"\n")); err != nil {
		cerr.SetJSONError(ctx, cerr.WrapStorageWriteError("standup report", err))
		return
	}
	s.recorder.Record(ctx, "", event.TypeStandup, "Generated standup report", "coordinator")

	cerr.SetJSONResponse(ctx, standupResponse{OK: true, Standup: text})
}
