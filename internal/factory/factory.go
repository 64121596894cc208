package factory

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/rankparty/internal/api"
	"github.com/mcoot/rankparty/internal/dependencies/clock"
	"github.com/mcoot/rankparty/internal/dependencies/notifier"
	"github.com/mcoot/rankparty/internal/dependencies/random"
	"github.com/mcoot/rankparty/internal/realtime"
	"github.com/mcoot/rankparty/internal/services/registry"
	"github.com/mcoot/rankparty/internal/services/room"
	"github.com/mcoot/rankparty/internal/services/scoring"
	"github.com/mcoot/rankparty/internal/services/timer"
	"github.com/mcoot/rankparty/internal/services/topics"
	"github.com/mcoot/rankparty/internal/storage"
	"github.com/mcoot/rankparty/internal/storage/memory"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Registry       *registry.Registry
	TopicService   *topics.Service
	ScoringService *scoring.Service
	RoomController *room.Controller
	RoundTimer     *timer.RoundTimer

	// Transport
	HubManager      *realtime.HubManager
	RealtimeHandler *realtime.Handler

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Room holds the game rules. Zero fields take their defaults, except
	// GuessTimeout where zero disables the guess deadline.
	Room room.Config
	// Realtime holds per-connection limits. Zero fields take their defaults.
	Realtime realtime.Options
	// SweepInterval is how often the round timer runs
	SweepInterval time.Duration
	// IdleTTL evicts rooms idle for longer than this; zero disables eviction
	IdleTTL time.Duration
	// TopicsPath optionally replaces the built-in topic list with one from a file
	TopicsPath string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	rnd := random.New()

	topicList := topics.Default()
	if cfg.TopicsPath != "" {
		loaded, err := topics.LoadFile(cfg.TopicsPath)
		if err != nil {
			return nil, fmt.Errorf("load topics: %w", err)
		}
		topicList = loaded
		logger.Info("topics loaded",
			slog.String("path", cfg.TopicsPath),
			slog.Int("count", len(loaded)))
	}

	return newWithDependencies(memory.New(), clock.New(), rnd, topicList, nil, withDefaults(cfg), logger), nil
}

// withDefaults fills unset config fields
func withDefaults(cfg Config) Config {
	defaults := room.DefaultConfig()
	if cfg.Room == (room.Config{}) {
		cfg.Room = defaults
	}
	if cfg.Room.MaxPlayers == 0 {
		cfg.Room.MaxPlayers = defaults.MaxPlayers
	}
	if cfg.Room.RoundLimit == 0 {
		cfg.Room.RoundLimit = defaults.RoundLimit
	}
	if cfg.Room.RankingTimeout == 0 {
		cfg.Room.RankingTimeout = defaults.RankingTimeout
	}
	if cfg.Realtime.RateLimit == 0 {
		cfg.Realtime.RateLimit = realtime.DefaultOptions().RateLimit
	}
	if cfg.Realtime.RateBurst == 0 {
		cfg.Realtime.RateBurst = realtime.DefaultOptions().RateBurst
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = timer.DefaultInterval
	}
	return cfg
}

// newWithDependencies creates an App with the given dependencies (useful for testing).
// extra, when set, receives every event alongside the connected clients.
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	topicList []string,
	extra notifier.Notifier,
	cfg Config,
	logger *slog.Logger,
) *App {
	hubManager := realtime.NewHubManager(logger)
	var notify notifier.Notifier = hubManager
	if extra != nil {
		notify = notifier.Fanout{hubManager, extra}
	}

	reg := registry.New(store, rnd, logger)
	topicService := topics.New(rnd, topicList)
	scoringService := scoring.New()
	roomController := room.NewController(reg, scoringService, topicService, notify, clk, rnd, logger, cfg.Room)
	roundTimer := timer.New(reg, roomController, clk, cfg.SweepInterval, cfg.IdleTTL, logger)
	realtimeHandler := realtime.NewHandler(roomController, hubManager, clk, cfg.Realtime, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		Registry:        reg,
		TopicService:    topicService,
		ScoringService:  scoringService,
		RoomController:  roomController,
		RoundTimer:      roundTimer,
		HubManager:      hubManager,
		RealtimeHandler: realtimeHandler,
		logger:          logger,
	}
}

// Router builds the HTTP handler for the app. publicURL may be empty.
func (a *App) Router(publicURL string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:         a.logger,
		RoomController: a.RoomController,
		Registry:       a.Registry,
		Connections:    a.HubManager,
		Realtime:       a.RealtimeHandler,
		PublicURL:      publicURL,
	})
}

// Close drops every connection and destroys every room
func (a *App) Close() error {
	a.HubManager.CloseAll()
	return a.Registry.Close()
}
