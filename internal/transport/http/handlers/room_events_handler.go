package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	roomsvc "github.com/ivankudzin/mealmatch/internal/services/rooms"
	"github.com/ivankudzin/mealmatch/internal/transport/http/dto"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 512
)

// RoomEventsHandler streams room lifecycle events over a websocket.
type RoomEventsHandler struct {
	service  *roomsvc.Service
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewRoomEventsHandler(service *roomsvc.Service, allowedOrigins []string, log *zap.Logger) *RoomEventsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &RoomEventsHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		log: log,
	}
}

func (h *RoomEventsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "ROOM_SERVICE_UNAVAILABLE", "room service is unavailable")
		return
	}

	events, cancel, err := h.service.Subscribe(r.Context(), roomID, userID)
	if err != nil {
		switch {
		case errors.Is(err, roomsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid room id")
		case errors.Is(err, roomsvc.ErrNotFound):
			writeNotFound(w, "ROOM_NOT_FOUND", "room not found")
		case errors.Is(err, roomsvc.ErrForbidden):
			writeForbidden(w, "FORBIDDEN", "not a participant of this room")
		default:
			h.log.Warn("room subscribe failed", zap.Error(err))
			writeStoreError(w, err, "failed to subscribe to room events")
		}
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	closed := make(chan struct{})
	go h.readPump(conn, closed)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(dto.NewRoomEventMessage(event)); err != nil {
				h.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so control messages are processed and a
// client disconnect is noticed.
func (h *RoomEventsHandler) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}
