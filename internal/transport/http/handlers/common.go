package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
	authsvc "github.com/ivankudzin/mealmatch/internal/services/auth"
	httperrors "github.com/ivankudzin/mealmatch/internal/transport/http/errors"
)

const tempUnavailableRetrySec = 10

var validate = validator.New()

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// decodeAndValidate decodes the body and checks its validate tags.
func decodeAndValidate(r *http.Request, target any) error {
	if err := decodeJSON(r, target); err != nil {
		return err
	}
	return validate.Struct(target)
}

func currentUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return uuid.Nil, false
	}
	return identity.UserID, true
}

func roomIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	roomID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "roomID")))
	if err != nil || roomID == uuid.Nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid room id")
		return uuid.Nil, false
	}
	return roomID, true
}

// writeStoreError answers for failures that no domain error explains.
func writeStoreError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, pgrepo.ErrTransient) {
		httperrors.WriteRetryable(w, http.StatusServiceUnavailable, httperrors.RateLimitError{
			Code:          "TEMP_UNAVAILABLE",
			Message:       "storage is temporarily unavailable",
			RetryAfterSec: tempUnavailableRetrySec,
		})
		return
	}
	writeInternal(w, "INTERNAL_ERROR", message)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusBadRequest, code, message)
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusUnauthorized, code, message)
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusForbidden, code, message)
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusNotFound, code, message)
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusConflict, code, message)
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusInternalServerError, code, message)
}
