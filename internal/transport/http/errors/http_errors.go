package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RateLimitError is returned with 429 and 503 responses. RetryAfterSec is
// mirrored into the Retry-After header.
type RateLimitError struct {
	Code          string     `json:"code"`
	Message       string     `json:"message"`
	RetryAfterSec int64      `json:"retry_after_sec"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	Write(w, status, APIError{Code: code, Message: message})
}

// WriteRetryable sets Retry-After and writes payload. A non-positive delay
// is rounded up to one second.
func WriteRetryable(w http.ResponseWriter, status int, payload RateLimitError) {
	if payload.RetryAfterSec <= 0 {
		payload.RetryAfterSec = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(payload.RetryAfterSec, 10))
	Write(w, status, payload)
}
