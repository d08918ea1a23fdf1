package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, []string{"!", "❗"}, cfg.CommandPrefixes)
	assert.Equal(t, "dsda", cfg.CommandGroup)
	assert.Equal(t, "speed", cfg.NotifyChannel)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday, time.Monday}, cfg.Days)
	assert.Equal(t, "file", cfg.MarkerBackend)
	assert.Equal(t, "latest_update.txt", cfg.MarkerPath)
	assert.Equal(t, "https://dsdarchive.com", cfg.DSDABaseURL)
	assert.Equal(t, 20*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.InitSlashCommands)
	assert.Equal(t, "A new update was posted! Check it out at: \nhttp://doomedsda.us/updates.html", cfg.NotificationText())
}

func TestOverrides(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"COMMAND_PREFIXES": " ?, ,$",
		"COMMAND_GROUP":    " DSDA ",
		"POLL_DAYS":        "fri,sat",
		"POLL_INTERVAL":    "30s",
		"MARKER_BACKEND":   "Redis",
		"REDIS_ADDR":       "localhost:6379",
		"LOG_LEVEL":        "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"?", "$"}, cfg.CommandPrefixes)
	assert.Equal(t, "dsda", cfg.CommandGroup)
	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, cfg.Days)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, "redis", cfg.StorageOptions().Backend)
	assert.Equal(t, "localhost:6379", cfg.StorageOptions().RedisAddr)
}

func TestInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"days":          {"POLL_DAYS": "someday"},
		"interval":      {"POLL_INTERVAL": "0s"},
		"backend":       {"MARKER_BACKEND": "sqlite"},
		"redis address": {"MARKER_BACKEND": "redis"},
		"log level":     {"LOG_LEVEL": "loud"},
		"prefixes":      {"COMMAND_PREFIXES": " , "},
		"rate":          {"DSDA_RATE": "-1"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromMap(vars)
			assert.Error(t, err)
		})
	}
}

func TestTokenFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n  secret-token  \nignored\n"), 0o600))

	cfg, err := FromMap(map[string]string{"DISCORD_TOKEN_FILE": path})
	require.NoError(t, err)

	token, err := cfg.Token()
	require.NoError(t, err)
	assert.Equal(t, "secret-token", token)

	cfg.DiscordToken = "from-env"
	token, err = cfg.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)
}

func TestTokenMissing(t *testing.T) {
	cfg, err := FromMap(map[string]string{"DISCORD_TOKEN_FILE": filepath.Join(t.TempDir(), "nope.txt")})
	require.NoError(t, err)

	_, err = cfg.Token()
	assert.ErrorIs(t, err, ErrNoToken)
}
