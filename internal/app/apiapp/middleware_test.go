package apiapp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/config"
	authsvc "github.com/ivankudzin/mealmatch/internal/services/auth"
)

func newAuthService() *authsvc.Service {
	return authsvc.NewService(authsvc.NewJWTManager("secret", "mealmatch", time.Minute))
}

func TestAuthMiddlewareSetsIdentity(t *testing.T) {
	svc := newAuthService()
	userID := uuid.New()
	token, _, err := svc.IssueAccessToken(userID, "")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	mw := AuthMiddleware(svc, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok || identity.UserID != userID {
			t.Fatalf("identity mismatch: %+v", identity)
		}
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	mw := AuthMiddleware(newAuthService(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/feed?access_token=abc", nil)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called without token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewareAcceptsQueryTokenOnWebsocketUpgrade(t *testing.T) {
	svc := newAuthService()
	token, _, err := svc.IssueAccessToken(uuid.New(), "")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	mw := AuthMiddleware(svc, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/rooms/x/events?access_token="+token, nil)
	req.Header.Set("Upgrade", "websocket")
	rr := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if !called || rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d called=%v", rr.Code, called)
	}
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	mw := AuthMiddleware(newAuthService(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called on invalid token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestThrottleMiddlewareShedsBurst(t *testing.T) {
	mw := ThrottleMiddleware(config.ThrottleConfig{RequestsPerSecond: 0.001, Burst: 2})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent {
		t.Fatalf("burst should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request should be throttled, got %v", codes)
	}
}

func TestThrottleMiddlewareDisabled(t *testing.T) {
	mw := ThrottleMiddleware(config.ThrottleConfig{})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rr.Code != http.StatusNoContent {
			t.Fatalf("request %d throttled with limiter disabled", i)
		}
	}
}
