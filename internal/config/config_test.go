package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Given: a config file that only sets the port
	path := writeConfig(t, "http-port: \"8081\"\n")

	// When: loading it
	conf, err := Load(path)

	// Then: every other value falls back to its default
	require.NoError(t, err)
	assert.Equal(t, "8081", conf.HTTPPort)
	assert.Equal(t, "info", conf.LogLevel)
	assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	assert.Equal(t, DriverSQLite, conf.Snapshot.Driver)
	assert.Equal(t, "bingo:snapshot", conf.Snapshot.Key)
	assert.Equal(t, 90, conf.Game.TotalBalls)
	assert.Equal(t, 3, conf.Game.DefaultSpeed)
	assert.Equal(t, 900*time.Millisecond, conf.Game.FinishDelay)
	assert.Equal(t, "mp3", conf.Audio.Ext)
	assert.Equal(t, "/audio", conf.Audio.URLPrefix)
	assert.Equal(t, 1000, conf.WebSocket.MaxConnections)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log-level: debug
snapshot:
  driver: file
  file-path: /tmp/bingo.json
game:
  total-balls: 75
  default-speed: 5
  finish-delay: 1s
audio:
  dir: /srv/audio
  ext: ogg
`)

	conf, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, DriverFile, conf.Snapshot.Driver)
	assert.Equal(t, "/tmp/bingo.json", conf.Snapshot.FilePath)
	assert.Equal(t, 75, conf.Game.TotalBalls)
	assert.Equal(t, 5, conf.Game.DefaultSpeed)
	assert.Equal(t, time.Second, conf.Game.FinishDelay)
	assert.Equal(t, "/srv/audio", conf.Audio.Dir)
	assert.Equal(t, "ogg", conf.Audio.Ext)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BINGO_SNAPSHOT_DRIVER", DriverMemory)
	path := writeConfig(t, "snapshot:\n  driver: redis\n")

	conf, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, DriverMemory, conf.Snapshot.Driver)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
		err  error
	}{
		{name: "Unknown driver", body: "snapshot:\n  driver: postgres\n", err: ErrUnknownDriver},
		{name: "Negative balls", body: "game:\n  total-balls: -1\n", err: ErrInvalidGame},
		{name: "Speed out of range", body: "game:\n  default-speed: 12\n", err: ErrInvalidGame},
		{name: "Negative finish delay", body: "game:\n  finish-delay: -1s\n", err: ErrInvalidGame},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))

			require.ErrorIs(t, err, tc.err)
		})
	}

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		require.Error(t, err)
	})

	t.Run("MustLoad panics", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(writeConfig(t, "snapshot:\n  driver: postgres\n"))
		})
	})
}
