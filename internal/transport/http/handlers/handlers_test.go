package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
	"github.com/ivankudzin/mealmatch/internal/repo/memory"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
	authsvc "github.com/ivankudzin/mealmatch/internal/services/auth"
	feedsvc "github.com/ivankudzin/mealmatch/internal/services/feed"
	matchessvc "github.com/ivankudzin/mealmatch/internal/services/matches"
	roomsvc "github.com/ivankudzin/mealmatch/internal/services/rooms"
	swipesvc "github.com/ivankudzin/mealmatch/internal/services/swipes"
	userssvc "github.com/ivankudzin/mealmatch/internal/services/users"
)

const testUserHeader = "X-Test-User"

type testAPI struct {
	store   *memory.Store
	handler http.Handler
	meals   []model.Meal
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.NewStore()
	meals := store.Meals().Seed(
		model.Meal{Name: "Pad Thai", Characteristics: []string{"Spicy", "Noodles"}, DietaryPreferences: []string{"Nut-Free"}},
		model.Meal{Name: "Falafel", Characteristics: []string{"Vegan", "Fried"}, DietaryPreferences: []string{"Vegan"}},
	)

	rooms := roomsvc.NewService(roomsvc.Dependencies{
		Tx:           store,
		Rooms:        store.Rooms(),
		Participants: store.Participants(),
	}, roomsvc.Config{AllowRejoin: true})
	swipes := swipesvc.NewService(swipesvc.Dependencies{
		Rooms:        store.Rooms(),
		Participants: store.Participants(),
		Swipes:       store.Swipes(),
		Meals:        store.Meals(),
	}, swipesvc.Config{})
	matches := matchessvc.NewService(matchessvc.Dependencies{
		Rooms:        store.Rooms(),
		Participants: store.Participants(),
		Likes:        store.Swipes(),
		Meals:        store.Meals(),
	}, matchessvc.Config{})
	feed := feedsvc.NewService(feedsvc.Dependencies{
		Meals:       store.Meals(),
		Preferences: store.Preferences(),
	})
	prefs := userssvc.NewService(store.Preferences())

	roomsHandler := NewRoomsHandler(rooms, nil)
	swipeHandler := NewSwipeHandler(swipes)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if raw := req.Header.Get(testUserHeader); raw != "" {
				req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: uuid.MustParse(raw)}))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/v1/feed", NewFeedHandler(feed).Handle)
	r.Get("/v1/preferences/catalog", NewPreferencesHandler(prefs).Catalog)
	r.Get("/v1/preferences", NewPreferencesHandler(prefs).Get)
	r.Put("/v1/preferences", NewPreferencesHandler(prefs).Update)
	r.Post("/v1/rooms", roomsHandler.Create)
	r.Post("/v1/rooms/join", roomsHandler.Join)
	r.Get("/v1/rooms/{roomID}", roomsHandler.Get)
	r.Delete("/v1/rooms/{roomID}", roomsHandler.Abandon)
	r.Post("/v1/rooms/{roomID}/finish", roomsHandler.Finish)
	r.Post("/v1/rooms/{roomID}/swipes", swipeHandler.Handle)
	r.Get("/v1/rooms/{roomID}/swipes", swipeHandler.History)
	r.Get("/v1/rooms/{roomID}/matches", NewMatchesHandler(matches).List)

	return &testAPI{store: store, handler: r, meals: meals}
}

func (a *testAPI) do(t *testing.T, method, path string, userID uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != uuid.Nil {
		req.Header.Set(testUserHeader, userID.String())
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

type roomPayload struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Status       string `json:"status"`
	Participants []struct {
		UserID string `json:"user_id"`
		Status string `json:"status"`
	} `json:"participants"`
}

type errorPayload struct {
	Code          string     `json:"code"`
	RetryAfterSec int64      `json:"retry_after_sec"`
	CooldownUntil *time.Time `json:"cooldown_until"`
}

func TestRoomFlowEndToEnd(t *testing.T) {
	api := newTestAPI(t)
	alice, bob := uuid.New(), uuid.New()

	created := api.do(t, http.MethodPost, "/v1/rooms", alice, nil)
	if created.Code != http.StatusCreated {
		t.Fatalf("create: got %d body=%s", created.Code, created.Body.String())
	}
	room := decodeBody[roomPayload](t, created)
	if room.Status != "open" || len(room.Code) != 6 || len(room.Participants) != 1 {
		t.Fatalf("unexpected created room %+v", room)
	}

	joined := api.do(t, http.MethodPost, "/v1/rooms/join", bob, map[string]any{"code": room.Code})
	if joined.Code != http.StatusOK {
		t.Fatalf("join: got %d body=%s", joined.Code, joined.Body.String())
	}
	if got := decodeBody[roomPayload](t, joined); got.Status != "playing" || len(got.Participants) != 2 {
		t.Fatalf("expected playing room with two participants, got %+v", got)
	}

	swipePath := fmt.Sprintf("/v1/rooms/%s/swipes", room.ID)
	for _, user := range []uuid.UUID{alice, bob} {
		for _, meal := range api.meals {
			rr := api.do(t, http.MethodPost, swipePath, user, map[string]any{"meal_id": meal.ID, "action": "like"})
			if rr.Code != http.StatusOK {
				t.Fatalf("swipe: got %d body=%s", rr.Code, rr.Body.String())
			}
		}
	}

	dup := api.do(t, http.MethodPost, swipePath, alice, map[string]any{"meal_id": api.meals[0].ID, "action": "dislike"})
	if dup.Code != http.StatusOK {
		t.Fatalf("duplicate swipe: got %d", dup.Code)
	}
	if payload := decodeBody[struct {
		Duplicate bool `json:"duplicate"`
	}](t, dup); !payload.Duplicate {
		t.Fatalf("expected duplicate flag, body=%s", dup.Body.String())
	}

	matchesPath := fmt.Sprintf("/v1/rooms/%s/matches", room.ID)
	if rr := api.do(t, http.MethodGet, matchesPath, alice, nil); rr.Code != http.StatusConflict {
		t.Fatalf("matches before finish: got %d want 409", rr.Code)
	}
	if rr := api.do(t, http.MethodGet, matchesPath+"?partial=true", alice, nil); rr.Code != http.StatusOK {
		t.Fatalf("partial matches: got %d", rr.Code)
	}

	finishPath := fmt.Sprintf("/v1/rooms/%s/finish", room.ID)
	if rr := api.do(t, http.MethodPost, finishPath, alice, nil); rr.Code != http.StatusOK {
		t.Fatalf("finish alice: got %d body=%s", rr.Code, rr.Body.String())
	}
	finished := api.do(t, http.MethodPost, finishPath, bob, nil)
	if got := decodeBody[roomPayload](t, finished); got.Status != "finished" {
		t.Fatalf("expected finished room, got %+v", got)
	}

	rr := api.do(t, http.MethodGet, matchesPath, bob, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("matches: got %d body=%s", rr.Code, rr.Body.String())
	}
	matches := decodeBody[struct {
		Items []struct {
			Meal struct {
				Name string `json:"name"`
			} `json:"meal"`
			SharedCharacteristics []string `json:"shared_characteristics"`
			LikeCount             int      `json:"like_count"`
			Score                 int      `json:"score"`
		} `json:"items"`
	}](t, rr)
	if len(matches.Items) != 2 {
		t.Fatalf("expected two matches, got %+v", matches.Items)
	}
	// 3*2 shared + 2*2 likes + 5 unanimous
	if matches.Items[0].Score != 15 || matches.Items[0].LikeCount != 2 {
		t.Fatalf("unexpected top match %+v", matches.Items[0])
	}

	history := api.do(t, http.MethodGet, swipePath, alice, nil)
	if got := decodeBody[struct {
		Items []json.RawMessage `json:"items"`
	}](t, history); len(got.Items) != 4 {
		t.Fatalf("expected four swipes in history, got %d", len(got.Items))
	}
}

func TestCreateRoomCooldownReturnsRetryAfter(t *testing.T) {
	api := newTestAPI(t)
	alice := uuid.New()

	if rr := api.do(t, http.MethodPost, "/v1/rooms", alice, nil); rr.Code != http.StatusCreated {
		t.Fatalf("first create: got %d", rr.Code)
	}

	rr := api.do(t, http.MethodPost, "/v1/rooms", alice, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second create: got %d want 429", rr.Code)
	}
	payload := decodeBody[errorPayload](t, rr)
	if payload.Code != "ROOM_RATE_LIMITED" || payload.RetryAfterSec <= 0 || payload.RetryAfterSec > 120 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.CooldownUntil == nil || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected cooldown_until and Retry-After, got %+v header=%q", payload, rr.Header().Get("Retry-After"))
	}
}

func TestJoinUnknownCodeReturnsNotFound(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/v1/rooms/join", uuid.New(), map[string]any{"code": "ZZZZZZ"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d want 404", rr.Code)
	}
	if payload := decodeBody[errorPayload](t, rr); payload.Code != "ROOM_NOT_FOUND" {
		t.Fatalf("unexpected code %q", payload.Code)
	}
}

func TestJoinRejectsUnknownFields(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/v1/rooms/join", uuid.New(), map[string]any{"code": "ABC123", "extra": true})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d want 400", rr.Code)
	}
}

func TestRequestsWithoutIdentityAreUnauthorized(t *testing.T) {
	api := newTestAPI(t)

	if rr := api.do(t, http.MethodPost, "/v1/rooms", uuid.Nil, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", rr.Code)
	}
}

func TestFinishOpenRoomIsInvariantViolation(t *testing.T) {
	api := newTestAPI(t)
	alice := uuid.New()

	room := decodeBody[roomPayload](t, api.do(t, http.MethodPost, "/v1/rooms", alice, nil))
	rr := api.do(t, http.MethodPost, fmt.Sprintf("/v1/rooms/%s/finish", room.ID), alice, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("got %d want 409", rr.Code)
	}
	if payload := decodeBody[errorPayload](t, rr); payload.Code != "INVARIANT_VIOLATION" {
		t.Fatalf("unexpected code %q", payload.Code)
	}
}

func TestGetRoomByOutsiderIsForbidden(t *testing.T) {
	api := newTestAPI(t)
	alice := uuid.New()

	room := decodeBody[roomPayload](t, api.do(t, http.MethodPost, "/v1/rooms", alice, nil))
	if rr := api.do(t, http.MethodGet, "/v1/rooms/"+room.ID, uuid.New(), nil); rr.Code != http.StatusForbidden {
		t.Fatalf("got %d want 403", rr.Code)
	}
	if rr := api.do(t, http.MethodGet, "/v1/rooms/not-a-uuid", alice, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d want 400", rr.Code)
	}
}

func TestAbandonRoomDeletesOpenRoom(t *testing.T) {
	api := newTestAPI(t)
	alice := uuid.New()

	room := decodeBody[roomPayload](t, api.do(t, http.MethodPost, "/v1/rooms", alice, nil))
	rr := api.do(t, http.MethodDelete, "/v1/rooms/"+room.ID, alice, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("abandon: got %d", rr.Code)
	}
	if payload := decodeBody[struct {
		Deleted bool `json:"deleted"`
	}](t, rr); !payload.Deleted {
		t.Fatalf("expected room deleted")
	}
	if rr := api.do(t, http.MethodGet, "/v1/rooms/"+room.ID, alice, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("get after abandon: got %d want 404", rr.Code)
	}
}

func TestPreferencesAndFeed(t *testing.T) {
	api := newTestAPI(t)
	user := uuid.New()

	catalog := decodeBody[struct {
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
	}](t, api.do(t, http.MethodGet, "/v1/preferences/catalog", user, nil))
	if len(catalog.Categories) != 3 {
		t.Fatalf("expected three categories, got %+v", catalog)
	}

	if rr := api.do(t, http.MethodPut, "/v1/preferences", user, map[string]any{"preferences": []string{"Paleo"}}); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown preference: got %d want 400", rr.Code)
	}

	rr := api.do(t, http.MethodPut, "/v1/preferences", user, map[string]any{"preferences": []string{"vegan"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("save preferences: got %d body=%s", rr.Code, rr.Body.String())
	}

	feed := decodeBody[struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}](t, api.do(t, http.MethodGet, "/v1/feed", user, nil))
	if len(feed.Items) != 1 || feed.Items[0].Name != "Falafel" {
		t.Fatalf("expected only vegan meal, got %+v", feed.Items)
	}
}

func TestWriteStoreErrorMapsTransient(t *testing.T) {
	rr := httptest.NewRecorder()
	writeStoreError(rr, fmt.Errorf("load room: %w", pgrepo.ErrTransient), "failed")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d want 503", rr.Code)
	}
	payload := decodeBody[errorPayload](t, rr)
	if payload.Code != "TEMP_UNAVAILABLE" || payload.RetryAfterSec != tempUnavailableRetrySec {
		t.Fatalf("unexpected payload %+v", payload)
	}

	rr = httptest.NewRecorder()
	writeStoreError(rr, context.DeadlineExceeded, "failed")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("got %d want 500", rr.Code)
	}
}
