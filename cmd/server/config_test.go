package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parse builds the command and parses args without running it
func parse(t *testing.T, args ...string) *Config {
	t.Helper()

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.ParseFlags(args))
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := parse(t)

	assert.Equal(t, 8080, cfg.port)
	assert.Equal(t, 8, cfg.maxPlayers)
	assert.Equal(t, 5, cfg.roundLimit)
	assert.Equal(t, 10*time.Second, cfg.sweepInterval)
	assert.Equal(t, 60*time.Second, cfg.rankingTimeout)
	assert.Equal(t, 90*time.Second, cfg.guessTimeout)
	assert.NoError(t, cfg.validate())
}

func TestFlags(t *testing.T) {
	cfg := parse(t, "--port", "9000", "--round-limit", "3", "--guess-timeout", "0s", "--public-url", "https://party.example.com")

	assert.Equal(t, 9000, cfg.port)
	assert.Equal(t, 3, cfg.roundLimit)
	assert.Equal(t, time.Duration(0), cfg.guessTimeout)
	assert.Equal(t, "https://party.example.com", cfg.publicURL)
	assert.NoError(t, cfg.validate())
}

func TestUnderscoreFlagsNormalize(t *testing.T) {
	cfg := parse(t, "--max_players", "4")
	assert.Equal(t, 4, cfg.maxPlayers)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("RANKPARTY_PORT", "9100")
	t.Setenv("RANKPARTY_RANKING_TIMEOUT", "45s")

	cfg := parse(t)
	assert.Equal(t, 9100, cfg.port)
	assert.Equal(t, 45*time.Second, cfg.rankingTimeout)
}

func TestFlagBeatsEnvironment(t *testing.T) {
	t.Setenv("RANKPARTY_PORT", "9100")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9200"}))
	assert.Equal(t, 9200, cfg.port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"port too high", []string{"--port", "70000"}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"one player", []string{"--max-players", "1"}},
		{"round limit too high", []string{"--round-limit", "21"}},
		{"zero sweep", []string{"--sweep-interval", "0s"}},
		{"zero ranking timeout", []string{"--ranking-timeout", "0s"}},
		{"zero burst", []string{"--rate-burst", "0"}},
		{"public url without scheme", []string{"--public-url", "party.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parse(t, tt.args...)
			assert.Error(t, cfg.validate())
		})
	}
}
