package handlers

import (
	"errors"
	"net/http"

	userssvc "github.com/ivankudzin/mealmatch/internal/services/users"
	"github.com/ivankudzin/mealmatch/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/mealmatch/internal/transport/http/errors"
)

type PreferencesHandler struct {
	service *userssvc.Service
}

func NewPreferencesHandler(service *userssvc.Service) *PreferencesHandler {
	return &PreferencesHandler{service: service}
}

func (h *PreferencesHandler) Catalog(w http.ResponseWriter, _ *http.Request) {
	if h.service == nil {
		writeInternal(w, "PREFERENCES_SERVICE_UNAVAILABLE", "preferences service is unavailable")
		return
	}

	catalog := h.service.Catalog()
	resp := dto.PreferenceCatalogResponse{Categories: make([]dto.PreferenceCategoryResponse, 0, len(catalog))}
	for _, c := range catalog {
		resp.Categories = append(resp.Categories, dto.PreferenceCategoryResponse{Name: c.Name, Options: c.Options})
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PREFERENCES_SERVICE_UNAVAILABLE", "preferences service is unavailable")
		return
	}

	prefs, err := h.service.Get(r.Context(), userID)
	if err != nil {
		writeStoreError(w, err, "failed to load preferences")
		return
	}

	resp := dto.PreferencesResponse{Preferences: prefs.Preferences}
	if resp.Preferences == nil {
		resp.Preferences = []string{}
	}
	if !prefs.UpdatedAt.IsZero() {
		updatedAt := prefs.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PREFERENCES_SERVICE_UNAVAILABLE", "preferences service is unavailable")
		return
	}

	var req dto.UpdatePreferencesRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid preferences payload")
		return
	}

	prefs, err := h.service.Save(r.Context(), userID, req.Preferences)
	if err != nil {
		switch {
		case errors.Is(err, userssvc.ErrUnknownPreference):
			writeBadRequest(w, "UNKNOWN_PREFERENCE", "preference is not in the catalog")
		case errors.Is(err, userssvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid preferences payload")
		default:
			writeStoreError(w, err, "failed to save preferences")
		}
		return
	}

	updatedAt := prefs.UpdatedAt
	httperrors.Write(w, http.StatusOK, dto.PreferencesResponse{Preferences: prefs.Preferences, UpdatedAt: &updatedAt})
}
