package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/rankparty/internal/model"
)

// Config holds server settings from flags and RANKPARTY_* environment variables
type Config struct {
	host            string
	port            int
	logLevel        string
	publicURL       string
	topicsFile      string
	maxPlayers      int
	roundLimit      int
	sweepInterval   time.Duration
	rankingTimeout  time.Duration
	guessTimeout    time.Duration
	idleTTL         time.Duration
	rateLimit       float64
	rateBurst       int
	shutdownTimeout time.Duration
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.maxPlayers < model.MinPlayersToStart {
		return fmt.Errorf("invalid max players (must be at least %d): %d", model.MinPlayersToStart, c.maxPlayers)
	}
	if c.roundLimit < 1 || c.roundLimit > model.MaxRoundLimit {
		return fmt.Errorf("invalid round limit (must be between 1-%d inclusive): %d", model.MaxRoundLimit, c.roundLimit)
	}
	if c.sweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	if c.rankingTimeout <= 0 {
		return errors.New("ranking timeout must be positive")
	}
	if c.guessTimeout < 0 || c.idleTTL < 0 {
		return errors.New("timeouts cannot be negative")
	}
	if c.rateLimit <= 0 || c.rateBurst < 1 {
		return errors.New("rate limit and burst must be positive")
	}
	if c.publicURL != "" && !strings.HasPrefix(c.publicURL, "http://") && !strings.HasPrefix(c.publicURL, "https://") {
		return fmt.Errorf("public url must start with http:// or https://: %s", c.publicURL)
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.logLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level: %s", c.logLevel)
	}
	return level, nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RANKPARTY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "rankparty-server",
		Short: "Game server for Rank the Topic, a party game about guessing the judge's ranking.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.host, "host", "", "address to bind to (env: RANKPARTY_HOST)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: RANKPARTY_PORT)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "debug, info, warn or error (env: RANKPARTY_LOG_LEVEL)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "base URL for join links and QR codes (env: RANKPARTY_PUBLIC_URL)")
	fs.StringVar(&cfg.topicsFile, "topics-file", "", "file with one topic per line replacing the built-in list (env: RANKPARTY_TOPICS_FILE)")
	fs.IntVar(&cfg.maxPlayers, "max-players", model.DefaultMaxPlayers, "players allowed per room (env: RANKPARTY_MAX_PLAYERS)")
	fs.IntVar(&cfg.roundLimit, "round-limit", model.DefaultRoundLimit, "rounds per game unless the host picks (env: RANKPARTY_ROUND_LIMIT)")
	fs.DurationVar(&cfg.sweepInterval, "sweep-interval", 10*time.Second, "how often stalled rounds are checked (env: RANKPARTY_SWEEP_INTERVAL)")
	fs.DurationVar(&cfg.rankingTimeout, "ranking-timeout", 60*time.Second, "time the judge has to rank before a random ranking is used (env: RANKPARTY_RANKING_TIMEOUT)")
	fs.DurationVar(&cfg.guessTimeout, "guess-timeout", 90*time.Second, "time guessers have after the ranking, 0 waits forever (env: RANKPARTY_GUESS_TIMEOUT)")
	fs.DurationVar(&cfg.idleTTL, "idle-ttl", 0, "time before idle rooms are removed, 0 keeps them (env: RANKPARTY_IDLE_TTL)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 5, "messages per second allowed per connection (env: RANKPARTY_RATE_LIMIT)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 10, "message burst allowed per connection (env: RANKPARTY_RATE_BURST)")
	fs.DurationVar(&cfg.shutdownTimeout, "shutdown-timeout", 30*time.Second, "time allowed for in-flight requests on shutdown (env: RANKPARTY_SHUTDOWN_TIMEOUT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
