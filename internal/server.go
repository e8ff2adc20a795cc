package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/ultronlabs/missionctl/internal/agent"
	"github.com/ultronlabs/missionctl/internal/assignment"
	"github.com/ultronlabs/missionctl/internal/config"
	"github.com/ultronlabs/missionctl/internal/event"
	"github.com/ultronlabs/missionctl/internal/heartbeat"
	"github.com/ultronlabs/missionctl/internal/orchestration"
	"github.com/ultronlabs/missionctl/internal/pushnotification"
	"github.com/ultronlabs/missionctl/internal/snapshot"
	"github.com/ultronlabs/missionctl/internal/standup"
	"github.com/ultronlabs/missionctl/internal/task"
	"github.com/ultronlabs/missionctl/pkg/cerr"
	"github.com/ultronlabs/missionctl/pkg/clog"
)

const serviceName = "missionctl"

type Server struct {
	server              *http.Server
	env                 *config.Env
	taskServer          *task.Server
	assignmentServer    *assignment.Server
	agentServer         *agent.Server
	heartbeatServer     *heartbeat.Server
	eventServer         *event.Server
	orchestrationServer *orchestration.Server
	snapshotServer      *snapshot.Server
	standupServer       *standup.Server
	pushServer          *pushnotification.Server
}

func NewServer(
	env *config.Env,
	taskServer *task.Server,
	assignmentServer *assignment.Server,
	agentServer *agent.Server,
	heartbeatServer *heartbeat.Server,
	eventServer *event.Server,
	orchestrationServer *orchestration.Server,
	snapshotServer *snapshot.Server,
	standupServer *standup.Server,
	pushServer *pushnotification.Server,
) *Server {
	return &Server{
		env:                 env,
		taskServer:          taskServer,
		assignmentServer:    assignmentServer,
		agentServer:         agentServer,
		heartbeatServer:     heartbeatServer,
		eventServer:         eventServer,
		orchestrationServer: orchestrationServer,
		snapshotServer:      snapshotServer,
		standupServer:       standupServer,
		pushServer:          pushServer,
	}
}

// ListenAndServe starts the HTTP server. The provided context is the base
// context for all incoming requests, so cancelling it on shutdown also
// cancels in-flight handlers.
func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})

		r.Get("/health", s.handleHealth)
		r.Get("/config", s.handleConfig)

		s.taskServer.RegisterRoutes(r)
		s.assignmentServer.RegisterRoutes(r)
		s.agentServer.RegisterRoutes(r)
		s.heartbeatServer.RegisterRoutes(r)
		s.eventServer.RegisterRoutes(r)
		s.orchestrationServer.RegisterRoutes(r)
		s.snapshotServer.RegisterRoutes(r)
		s.standupServer.RegisterRoutes(r)
		s.pushServer.RegisterRoutes(r)
	})

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(r), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type healthResponse struct {
	OK      bool      `json:"ok"`
	Service string    `json:"service"`
	Time    time.Time `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), healthResponse{
		OK:      true,
		Service: serviceName,
		Time:    time.Now(),
	})
}

type configResponse struct {
	Service  string `json:"service"`
	Env      string `json:"env"`
	ReadOnly bool   `json:"readOnly"`
	Storage  string `json:"storage"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), configResponse{
		Service:  serviceName,
		Env:      s.env.Env,
		ReadOnly: s.env.ReadOnly,
		Storage:  s.env.StorageEnv.Type,
	})
}
