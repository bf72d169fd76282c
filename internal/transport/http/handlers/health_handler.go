package handlers

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/ivankudzin/mealmatch/internal/transport/http/errors"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if check == nil {
			components[name] = "disabled"
			continue
		}
		if err := check.Ping(ctx); err != nil {
			components[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "up"
	}

	httperrors.Write(w, status, struct {
		OK         bool              `json:"ok"`
		Components map[string]string `json:"components"`
	}{
		OK:         status == http.StatusOK,
		Components: components,
	})
}
