package handlers

import (
	"errors"
	"net/http"

	feedsvc "github.com/ivankudzin/mealmatch/internal/services/feed"
	"github.com/ivankudzin/mealmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/mealmatch/internal/transport/http/errors"
)

type FeedHandler struct {
	service *feedsvc.Service
}

func NewFeedHandler(service *feedsvc.Service) *FeedHandler {
	return &FeedHandler{service: service}
}

func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "FEED_SERVICE_UNAVAILABLE", "feed service is unavailable")
		return
	}

	items, err := h.service.FeedFor(r.Context(), userID)
	if err != nil {
		if errors.Is(err, feedsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid feed request")
			return
		}
		writeStoreError(w, err, "failed to load feed")
		return
	}

	resp := dto.FeedResponse{Items: make([]dto.MealResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.NewMealResponse(item.Meal, item.ImageURL))
	}
	httperrors.Write(w, http.StatusOK, resp)
}
