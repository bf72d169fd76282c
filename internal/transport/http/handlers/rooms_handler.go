package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	roomsvc "github.com/ivankudzin/mealmatch/internal/services/rooms"
	"github.com/ivankudzin/mealmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/mealmatch/internal/transport/http/errors"
)

type RoomsHandler struct {
	service *roomsvc.Service
	log     *zap.Logger
}

func NewRoomsHandler(service *roomsvc.Service, log *zap.Logger) *RoomsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomsHandler{service: service, log: log}
}

func (h *RoomsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "ROOM_SERVICE_UNAVAILABLE", "room service is unavailable")
		return
	}

	room, err := h.service.CreateRoom(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "failed to create room")
		return
	}

	view, err := h.service.GetRoom(r.Context(), room.ID, userID)
	if err != nil {
		httperrors.Write(w, http.StatusCreated, dto.NewRoomResponse(room, nil))
		return
	}
	httperrors.Write(w, http.StatusCreated, dto.NewRoomResponse(view.Room, view.Participants))
}

func (h *RoomsHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "ROOM_SERVICE_UNAVAILABLE", "room service is unavailable")
		return
	}

	var req dto.JoinRoomRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "code is required")
		return
	}

	room, err := h.service.JoinRoom(r.Context(), req.Code, userID)
	if err != nil {
		h.writeError(w, err, "failed to join room")
		return
	}

	view, err := h.service.GetRoom(r.Context(), room.ID, userID)
	if err != nil {
		httperrors.Write(w, http.StatusOK, dto.NewRoomResponse(room, nil))
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewRoomResponse(view.Room, view.Participants))
}

func (h *RoomsHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.service.GetRoom(r.Context(), roomID, userID)
	if err != nil {
		h.writeError(w, err, "failed to load room")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewRoomResponse(view.Room, view.Participants))
}

func (h *RoomsHandler) Abandon(w http.ResponseWriter, r *http.Request) {
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

	deleted, err := h.service.AbandonRoom(r.Context(), roomID, userID)
	if err != nil {
		h.writeError(w, err, "failed to abandon room")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.AbandonRoomResponse{OK: true, Deleted: deleted})
}

// Finish marks the caller's feed as exhausted and completes the room once
// every participant has finished.
func (h *RoomsHandler) Finish(w http.ResponseWriter, r *http.Request) {
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

	room, err := h.service.FinishFeed(r.Context(), roomID, userID)
	if err != nil {
		h.writeError(w, err, "failed to finish feed")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewRoomResponse(room, nil))
}

func (h *RoomsHandler) writeError(w http.ResponseWriter, err error, message string) {
	var limited roomsvc.RateLimitedError
	switch {
	case errors.As(err, &limited):
		cooldownUntil := time.Now().UTC().Add(limited.RetryAfter)
		httperrors.WriteRetryable(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "ROOM_RATE_LIMITED",
			Message:       "a room was created recently, try again later",
			RetryAfterSec: limited.RetryAfterSec(),
			CooldownUntil: &cooldownUntil,
		})
	case errors.Is(err, roomsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid room request")
	case errors.Is(err, roomsvc.ErrNotFound):
		writeNotFound(w, "ROOM_NOT_FOUND", "room not found")
	case errors.Is(err, roomsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not a participant of this room")
	case errors.Is(err, roomsvc.ErrRoomFull):
		writeConflict(w, "ROOM_FULL", "room is full")
	case errors.Is(err, roomsvc.ErrInvariantViolation):
		h.log.Error("room invariant violated", zap.Error(err))
		writeConflict(w, "INVARIANT_VIOLATION", "room is not in a state that allows this action")
	case errors.Is(err, roomsvc.ErrCodeExhausted):
		httperrors.WriteRetryable(w, http.StatusServiceUnavailable, httperrors.RateLimitError{
			Code:          "ROOM_CODE_EXHAUSTED",
			Message:       "could not allocate a room code",
			RetryAfterSec: 1,
		})
	default:
		h.log.Warn("room request failed", zap.Error(err))
		writeStoreError(w, err, message)
	}
}
