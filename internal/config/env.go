package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:"127.0.0.1"`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// Empty disables the API key check.
	APIKey string `envconfig:"API_KEY"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".taskgantt"`
	Key     string `envconfig:"STORAGE_KEY" default:"gantt-project.json"`
	// S3 settings (used when Type == "s3")
	S3Bucket   string `envconfig:"S3_BUCKET"`
	S3Prefix   string `envconfig:"S3_PREFIX" default:"taskgantt/"`
	S3Region   string `envconfig:"S3_REGION" default:"ap-northeast-1"`
	S3Endpoint string `envconfig:"S3_ENDPOINT"`
	// SQLite settings (used when Type == "sqlite")
	SQLitePath string `envconfig:"SQLITE_PATH" default:".taskgantt/taskgantt.db"`
}

type ProjectEnv struct {
	Name      string        `envconfig:"PROJECT_NAME" default:"My Gantt Project"`
	SaveDelay time.Duration `envconfig:"SAVE_DELAY" default:"100ms"`
	WeekStart string        `envconfig:"WEEK_START" default:"sunday"`
	// Empty disables the event log.
	EventLogDir string `envconfig:"EVENT_LOG_DIR"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string        `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string        `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string        `envconfig:"VAPID_CONTACT" default:"taskgantt@localhost"`
	NotifyInterval  time.Duration `envconfig:"NOTIFY_INTERVAL" default:"1m"`
}

type Env struct {
	BaseEnv
	StorageEnv
	ProjectEnv
	VAPIDEnv
}

const namespace = "TASKGANTT"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if _, err := env.WeekStartDay(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (e *BaseEnv) Addr() string {
	return e.HTTPHost + ":" + e.HTTPPort
}

// WeekStartDay parses WEEK_START as a weekday name.
func (e *ProjectEnv) WeekStartDay() (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(e.WeekStart, d.String()) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid WEEK_START %q", e.WeekStart)
}

func (e *VAPIDEnv) Configured() bool {
	return e.VAPIDPublicKey != "" && e.VAPIDPrivateKey != ""
}
