package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/rankparty/internal/dependencies/clock"
	"github.com/mcoot/rankparty/internal/model"
	"github.com/mcoot/rankparty/internal/protocol"
)

// Controller is the room state machine the transport drives
type Controller interface {
	JoinGameRoom(ctx context.Context, code model.RoomCode, connID model.ConnID, name string) (*model.Room, error)
	SetRole(ctx context.Context, code model.RoomCode, connID model.ConnID, role model.Role) (*model.Room, error)
	StartGame(ctx context.Context, code model.RoomCode, connID model.ConnID, roundLimit int) (*model.Room, error)
	RestartGame(ctx context.Context, code model.RoomCode, connID model.ConnID) (*model.Room, error)
	SubmitEntry(ctx context.Context, code model.RoomCode, connID model.ConnID, text string) (*model.Room, error)
	StartRanking(ctx context.Context, code model.RoomCode, connID model.ConnID, judgeName string) (*model.Room, error)
	SubmitRanking(ctx context.Context, code model.RoomCode, connID model.ConnID, ranking []string) (*model.Room, error)
	RequestEntries(ctx context.Context, code model.RoomCode, connID model.ConnID) error
	SubmitGuess(ctx context.Context, code model.RoomCode, connID model.ConnID, guess []string) (*model.Room, error)
	Disconnect(ctx context.Context, code model.RoomCode, connID model.ConnID) error
}

// Options tune the per-connection limits
type Options struct {
	RateLimit float64 // Inbound messages per second
	RateBurst int
}

// DefaultOptions returns the default connection limits
func DefaultOptions() Options {
	return Options{RateLimit: 5, RateBurst: 10}
}

// Handler upgrades HTTP requests to WebSocket sessions and routes their
// messages to the room controller
type Handler struct {
	controller Controller
	manager    *HubManager
	clock      clock.Clock
	upgrader   websocket.Upgrader
	options    Options
	logger     *slog.Logger
}

// NewHandler creates a new WebSocket Handler
func NewHandler(controller Controller, manager *HubManager, clk clock.Clock, options Options, logger *slog.Logger) *Handler {
	return &Handler{
		controller: controller,
		manager:    manager,
		clock:      clk,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are served from other origins, such as a local dev server
			CheckOrigin: func(*http.Request) bool { return true },
		},
		options: options,
		logger:  logger.With(slog.String("component", "ws-handler")),
	}
}

// ServeHTTP runs a WebSocket session until the peer goes away
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		h.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}

	limiter := rate.NewLimiter(rate.Limit(h.options.RateLimit), h.options.RateBurst)
	client := NewClient(model.ConnID(uuid.NewString()), conn, limiter)
	h.manager.AddClient(client)

	h.logger.Info("ws connected",
		slog.String("conn_id", string(client.id)),
		slog.String("remote_addr", r.RemoteAddr))

	go client.writePump()
	h.readPump(client)
}

// readPump handles inbound frames one at a time, then cleans up the session
func (h *Handler) readPump(client *Client) {
	defer h.disconnect(client)

	client.prepareRead()
	for {
		data, err := client.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) ||
				errors.Is(err, errBinaryFrame) {
				h.logger.Warn("ws read failed",
					slog.String("conn_id", string(client.id)),
					slog.Any("error", err))
			}
			return
		}
		h.handleMessage(client, data)
	}
}

func (h *Handler) handleMessage(client *Client, data []byte) {
	if !client.limiter.Allow() {
		h.reject(client, client.Room(), nil, model.ErrRateLimited)
		return
	}

	in, err := protocol.Decode(data)
	if err != nil {
		h.reject(client, client.Room(), nil, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.dispatch(ctx, client, in); err != nil {
		h.reject(client, in.RoomCode, in.Action, err)
	}
}

func (h *Handler) dispatch(ctx context.Context, client *Client, in protocol.Inbound) error {
	code, id := in.RoomCode, client.id

	switch a := in.Action.(type) {
	case protocol.JoinGameRoom:
		return h.join(ctx, client, code, a.PlayerName)
	case protocol.SetRole:
		_, err := h.controller.SetRole(ctx, code, id, a.Role)
		return err
	case protocol.StartGame:
		_, err := h.controller.StartGame(ctx, code, id, a.RoundLimit)
		return err
	case protocol.SubmitEntry:
		_, err := h.controller.SubmitEntry(ctx, code, id, a.Text)
		return err
	case protocol.StartRankingPhase:
		_, err := h.controller.StartRanking(ctx, code, id, a.JudgeName)
		return err
	case protocol.SubmitRanking:
		_, err := h.controller.SubmitRanking(ctx, code, id, a.Ranking)
		return err
	case protocol.RequestEntries:
		return h.controller.RequestEntries(ctx, code, id)
	case protocol.SubmitGuess:
		_, err := h.controller.SubmitGuess(ctx, code, id, a.Guess)
		return err
	case protocol.RestartGame:
		_, err := h.controller.RestartGame(ctx, code, id)
		return err
	}
	return model.ErrInvalidMessage
}

// join binds the connection to a room. A connection plays in one room only.
func (h *Handler) join(ctx context.Context, client *Client, code model.RoomCode, name string) error {
	current := client.Room()
	if current != "" && current != code {
		return model.ErrConnBoundOther
	}

	// Subscribe first so the join's own broadcasts reach this connection
	if current == "" {
		h.manager.Join(code, client)
	}
	if _, err := h.controller.JoinGameRoom(ctx, code, client.id, name); err != nil {
		if current == "" {
			h.manager.Leave(code, client)
		}
		return err
	}
	client.setRoom(code)

	h.logger.Info("ws joined room",
		slog.String("conn_id", string(client.id)),
		slog.String("room", string(code)),
		slog.String("player", name))
	return nil
}

// reject tells only the acting connection why its message failed
func (h *Handler) reject(client *Client, code model.RoomCode, action protocol.Action, err error) {
	if model.KindOf(err) == model.KindInternal {
		h.logger.Error("ws action failed",
			slog.String("conn_id", string(client.id)),
			slog.String("room", string(code)),
			slog.Any("error", err))
	}
	h.manager.Send(client.id, protocol.ErrorEvent(code, h.clock.Now(), action, err))
}

func (h *Handler) disconnect(client *Client) {
	if code := client.Room(); code != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.controller.Disconnect(ctx, code, client.id); err != nil && model.KindOf(err) == model.KindInternal {
			h.logger.Error("ws failed to leave room",
				slog.String("conn_id", string(client.id)),
				slog.String("room", string(code)),
				slog.Any("error", err))
		}
	}
	h.manager.RemoveClient(client)

	h.logger.Info("ws disconnected",
		slog.String("conn_id", string(client.id)),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}
