package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/mcoot/rankparty/internal/api/apierr"
	"github.com/mcoot/rankparty/internal/api/request"
	"github.com/mcoot/rankparty/internal/api/response"
	"github.com/mcoot/rankparty/internal/model"
	"github.com/mcoot/rankparty/internal/services/room"
)

// qrSize is the edge length of join QR codes in pixels
const qrSize = 320

// RoomHandler handles room endpoints
type RoomHandler struct {
	controller *room.Controller
	publicURL  string
	logger     *slog.Logger
}

// NewRoomHandler creates a new room handler. publicURL is the base of join
// links; when empty it is derived from each request.
func NewRoomHandler(controller *room.Controller, publicURL string, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		controller: controller,
		publicURL:  strings.TrimSuffix(publicURL, "/"),
		logger:     logger.With(slog.String("component", "room-handler")),
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid request body"))
		return
	}

	rm, err := h.controller.CreateRoom(r.Context(), req.HostName)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateRoomResponse{
		RoomCode: string(rm.Code),
		Room:     response.RoomFromModel(rm),
	})
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	rm, err := h.controller.GetRoom(r.Context(), roomCode(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(rm))
}

// Join handles POST /api/v1/rooms/{code}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid request body"))
		return
	}

	rm, err := h.controller.JoinRoom(r.Context(), roomCode(r), req.PlayerName)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JoinRoomResponse{Room: response.RoomFromModel(rm)})
}

// QRCode handles GET /api/v1/rooms/{code}/qr with a PNG of the room's join link
func (h *RoomHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	code := roomCode(r)
	if _, err := h.controller.GetRoom(r.Context(), code); err != nil {
		apierr.WriteError(w, err)
		return
	}

	png, err := qrcode.Encode(h.joinURL(r, code), qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("qr generation failed",
			slog.String("room", string(code)),
			slog.Any("error", err))
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}

	response.PNG(w, png)
}

// joinURL builds the link a QR code points at, respecting TLS and X-Forwarded-Proto
func (h *RoomHandler) joinURL(r *http.Request, code model.RoomCode) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?room=" + url.QueryEscape(string(code))
}

func roomCode(r *http.Request) model.RoomCode {
	return model.RoomCode(strings.ToUpper(mux.Vars(r)["code"]))
}
