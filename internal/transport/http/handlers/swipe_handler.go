package handlers

import (
	"errors"
	"net/http"

	swipesvc "github.com/ivankudzin/mealmatch/internal/services/swipes"
	"github.com/ivankudzin/mealmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/mealmatch/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
}

func NewSwipeHandler(service *swipesvc.Service) *SwipeHandler {
	return &SwipeHandler{service: service}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "meal_id and action are required")
		return
	}

	swipe, err := h.service.Record(r.Context(), roomID, userID, req.MealID, req.Action)
	if err != nil {
		var tooFast swipesvc.TooFastError
		switch {
		case errors.Is(err, swipesvc.ErrDuplicateSwipe):
			httperrors.Write(w, http.StatusOK, dto.SwipeResponse{OK: true, Duplicate: true})
		case errors.Is(err, swipesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
		case errors.Is(err, swipesvc.ErrUnsupportedAction):
			writeBadRequest(w, "VALIDATION_ERROR", "unsupported action")
		case errors.Is(err, swipesvc.ErrParticipantNotFound):
			writeForbidden(w, "FORBIDDEN", "not a participant of this room")
		case errors.Is(err, swipesvc.ErrRoomNotFound):
			writeNotFound(w, "ROOM_NOT_FOUND", "room not found")
		case errors.Is(err, swipesvc.ErrMealNotFound):
			writeNotFound(w, "MEAL_NOT_FOUND", "meal not found")
		case errors.Is(err, swipesvc.ErrRoomNotPlaying):
			writeConflict(w, "ROOM_NOT_PLAYING", "room is not accepting swipes")
		case errors.As(err, &tooFast):
			httperrors.WriteRetryable(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "TOO_FAST",
				Message:       "too many swipes, slow down",
				RetryAfterSec: tooFast.RetryAfterSec,
			})
		default:
			writeStoreError(w, err, "failed to record swipe")
		}
		return
	}

	item := dto.NewSwipeItem(swipe)
	httperrors.Write(w, http.StatusOK, dto.SwipeResponse{OK: true, Swipe: &item})
}

func (h *SwipeHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	swipes, err := h.service.History(r.Context(), roomID, userID)
	if err != nil {
		switch {
		case errors.Is(err, swipesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid room id")
		case errors.Is(err, swipesvc.ErrParticipantNotFound):
			writeForbidden(w, "FORBIDDEN", "not a participant of this room")
		default:
			writeStoreError(w, err, "failed to load swipes")
		}
		return
	}

	items := make([]dto.SwipeItem, 0, len(swipes))
	for _, s := range swipes {
		items = append(items, dto.NewSwipeItem(s))
	}
	httperrors.Write(w, http.StatusOK, dto.SwipeHistoryResponse{Items: items})
}
