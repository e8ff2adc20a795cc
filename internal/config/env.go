package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8787"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	ReadOnly bool   `envconfig:"READ_ONLY" default:"false"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".missionctl/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"missionctl/"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
}

// MonitorEnv tunes the metrics projections. StaleOpenAfter is the age beyond
// which an open task counts as stale; HeartbeatLimit bounds the heartbeat
// history returned per metrics call.
type MonitorEnv struct {
	StaleOpenAfter time.Duration `envconfig:"STALE_OPEN_AFTER" default:"24h"`
	HeartbeatLimit int           `envconfig:"HEARTBEAT_LIMIT" default:"50"`
}

// VAPIDEnv carries web push credentials. Push notifications are disabled
// when the keys are empty.
type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"mailto:ops@missionctl.local"`
}

type SeedEnv struct {
	AgentsFile   string `envconfig:"AGENTS_FILE" default:"config/agents.yaml"`
	PoliciesFile string `envconfig:"POLICIES_FILE" default:"config/orchestration-policies.yaml"`
	DefaultOwner string `envconfig:"DEFAULT_OWNER" default:"ultron"`
}

type Env struct {
	BaseEnv
	StorageEnv
	MonitorEnv
	VAPIDEnv
	SeedEnv
}

const namespace = "MISSIONCTL"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func BaseEnvFromEnv(env *Env) *BaseEnv {
	return &env.BaseEnv
}

func MonitorEnvFromEnv(env *Env) *MonitorEnv {
	return &env.MonitorEnv
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}
