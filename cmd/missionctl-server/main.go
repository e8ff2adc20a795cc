package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ultronlabs/missionctl/internal/agent"
	agentrepo "github.com/ultronlabs/missionctl/internal/agent/repositoryimpl"
	"github.com/ultronlabs/missionctl/internal/assignment"
	assignmentrepo "github.com/ultronlabs/missionctl/internal/assignment/repositoryimpl"
	"github.com/ultronlabs/missionctl/internal/claim"
	"github.com/ultronlabs/missionctl/internal/config"
	"github.com/ultronlabs/missionctl/internal/event"
	eventrepo "github.com/ultronlabs/missionctl/internal/event/repositoryimpl"
	"github.com/ultronlabs/missionctl/internal/eventbus"
	"github.com/ultronlabs/missionctl/internal/heartbeat"
	heartbeatrepo "github.com/ultronlabs/missionctl/internal/heartbeat/repositoryimpl"
	"github.com/ultronlabs/missionctl/internal/orchestration"
	"github.com/ultronlabs/missionctl/internal/pushnotification"
	pushsubrepo "github.com/ultronlabs/missionctl/internal/pushsubscription/repositoryimpl"
	"github.com/ultronlabs/missionctl/internal/snapshot"
	"github.com/ultronlabs/missionctl/internal/standup"
	"github.com/ultronlabs/missionctl/internal/task"
	taskrepo "github.com/ultronlabs/missionctl/internal/task/repositoryimpl"
	"github.com/ultronlabs/missionctl/pkg/clog"
	"github.com/ultronlabs/missionctl/pkg/storage"

	server "github.com/ultronlabs/missionctl/internal"
)

// agentSeedFile is the operator-maintained agent registry. Agents are not
// created over the API; they come from this file at startup.
type agentSeedFile struct {
	Agents []struct {
		ID     string `yaml:"id"`
		Role   string `yaml:"role"`
		Active *bool  `yaml:"active"`
	} `yaml:"agents"`
}

func seedAgents(ctx context.Context, path string, repo agent.Repository) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("agents file not found, registry left as-is", "path", path)
			return nil
		}
		return err
	}
	var seed agentSeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return err
	}
	for _, a := range seed.Agents {
		active := true
		if a.Active != nil {
			active = *a.Active
		}
		if err := repo.Upsert(ctx, &agent.Agent{
			ID:        a.ID,
			Role:      a.Role,
			Active:    active,
			CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
	}
	slog.Info("seeded agents", "count", len(seed.Agents), "path", path)
	return nil
}

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	taskRepo := taskrepo.NewYAMLRepository(store)
	assignmentRepo := assignmentrepo.NewYAMLRepository(store)
	agentRepo := agentrepo.NewYAMLRepository(store)
	eventRepo := eventrepo.NewYAMLRepository(store)
	heartbeatRepo := heartbeatrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	recorder := event.NewRecorder(eventRepo, bus)

	if err := seedAgents(context.Background(), env.SeedEnv.AgentsFile, agentRepo); err != nil {
		slog.Error("failed to seed agents", "error", err)
		os.Exit(1)
	}

	policy, err := orchestration.LoadPolicyFile(env.SeedEnv.PoliciesFile)
	if err != nil {
		slog.Warn("orchestration policy unavailable, templates disabled", "error", err)
		policy = &orchestration.Policy{Templates: map[string]orchestration.Template{}}
	}

	// Setup servers
	taskServer := task.NewServer(taskRepo, agentRepo, assignmentRepo, recorder, env.SeedEnv.DefaultOwner)
	assignmentServer := assignment.NewServer(assignmentRepo, taskRepo, agentRepo, recorder)
	engine := claim.NewEngine(assignmentRepo, taskRepo)
	monitorEnv := config.MonitorEnvFromEnv(env)
	monitor := heartbeat.NewMonitor(taskRepo, heartbeatRepo, eventRepo, monitorEnv)
	heartbeatServer := heartbeat.NewServer(heartbeatRepo, monitor)
	agentServer := agent.NewServer(agentRepo, engine, assignmentServer, heartbeatServer, recorder)
	eventServer := event.NewServer(eventRepo)
	orchestrationServer := orchestration.NewServer(policy, taskRepo, recorder)
	snapshotServer := snapshot.NewServer(taskRepo, eventRepo, agentRepo, recorder)
	standupServer := standup.NewServer(taskRepo, store, recorder)

	// Setup push notification
	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushServer := pushnotification.NewServer(vapidEnv, pushSubRepo, pushSender)
	pushDispatcher := pushnotification.NewDispatcher(bus, taskRepo, pushSender)

	srv := server.NewServer(
		env,
		taskServer,
		assignmentServer,
		agentServer,
		heartbeatServer,
		eventServer,
		orchestrationServer,
		snapshotServer,
		standupServer,
		pushServer,
	)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go pushDispatcher.Start(ctx)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
