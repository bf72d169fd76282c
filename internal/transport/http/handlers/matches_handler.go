package handlers

import (
	"errors"
	"net/http"
	"strconv"

	matchessvc "github.com/ivankudzin/mealmatch/internal/services/matches"
	"github.com/ivankudzin/mealmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/mealmatch/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchessvc.Service
}

func NewMatchesHandler(service *matchessvc.Service) *MatchesHandler {
	return &MatchesHandler{service: service}
}

// List returns the top matches of a room. ?partial=true computes them
// before the room is finished.
func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	partial := false
	if raw := r.URL.Query().Get("partial"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "partial must be a boolean")
			return
		}
		partial = parsed
	}

	results, err := h.service.ComputeMatches(r.Context(), roomID, userID, partial)
	if err != nil {
		switch {
		case errors.Is(err, matchessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid room id")
		case errors.Is(err, matchessvc.ErrRoomNotFound):
			writeNotFound(w, "ROOM_NOT_FOUND", "room not found")
		case errors.Is(err, matchessvc.ErrForbidden):
			writeForbidden(w, "FORBIDDEN", "not a participant of this room")
		case errors.Is(err, matchessvc.ErrRoomNotFinished):
			writeConflict(w, "ROOM_NOT_FINISHED", "room is not finished yet")
		default:
			writeStoreError(w, err, "failed to compute matches")
		}
		return
	}

	items := make([]dto.MatchItemResponse, 0, len(results))
	for _, res := range results {
		shared := res.SharedCharacteristics
		if shared == nil {
			shared = []string{}
		}
		items = append(items, dto.MatchItemResponse{
			Meal:                  dto.NewMealResponse(res.Meal, res.ImageURL),
			SharedCharacteristics: shared,
			LikeCount:             res.LikeCount,
			Score:                 res.Score,
		})
	}
	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{Items: items, Partial: partial})
}
