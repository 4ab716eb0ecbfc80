package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "local", env.Env)
	assert.Equal(t, "127.0.0.1:3200", env.Addr())
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, "gantt-project.json", env.Key)
	assert.Equal(t, 100*time.Millisecond, env.SaveDelay)
	assert.Equal(t, "My Gantt Project", env.Name)
	assert.False(t, env.Configured())
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("TASKGANTT_STORAGE_TYPE", "sqlite")
	t.Setenv("TASKGANTT_SAVE_DELAY", "2s")
	t.Setenv("TASKGANTT_WEEK_START", "Monday")
	t.Setenv("TASKGANTT_LOG_LEVEL", "warn")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", env.StorageEnv.Type)
	assert.Equal(t, 2*time.Second, env.SaveDelay)
	day, err := env.WeekStartDay()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, day)
	assert.Equal(t, slog.LevelWarn, env.SlogLevel())
}

func TestLoadEnv_InvalidWeekStart(t *testing.T) {
	t.Setenv("TASKGANTT_WEEK_START", "someday")
	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestSlogLevel_Fallback(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, (&BaseEnv{LogLevel: "loud"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (*BaseEnv)(nil).SlogLevel())
}
