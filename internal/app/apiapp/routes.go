package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/config"
	authsvc "github.com/ivankudzin/mealmatch/internal/services/auth"
	feedsvc "github.com/ivankudzin/mealmatch/internal/services/feed"
	matchessvc "github.com/ivankudzin/mealmatch/internal/services/matches"
	roomsvc "github.com/ivankudzin/mealmatch/internal/services/rooms"
	swipesvc "github.com/ivankudzin/mealmatch/internal/services/swipes"
	userssvc "github.com/ivankudzin/mealmatch/internal/services/users"
	"github.com/ivankudzin/mealmatch/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService        *authsvc.Service
	FeedService        *feedsvc.Service
	MatchService       *matchessvc.Service
	PreferencesService *userssvc.Service
	RoomService        *roomsvc.Service
	SwipeService       *swipesvc.Service
	HealthChecks       map[string]handlers.Pinger
	Logger             *zap.Logger
	Config             config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	preferencesHandler := handlers.NewPreferencesHandler(deps.PreferencesService)
	feedHandler := handlers.NewFeedHandler(deps.FeedService)
	roomsHandler := handlers.NewRoomsHandler(deps.RoomService, deps.Logger)
	roomEventsHandler := handlers.NewRoomEventsHandler(deps.RoomService, deps.Config.HTTP.AllowedOrigins, deps.Logger)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	timeoutMW := TimeoutMiddleware(deps.Config.HTTP.WriteTimeout)

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)

		// long-lived stream, no request timeout
		r.Get("/rooms/{roomID}/events", roomEventsHandler.Handle)

		r.Group(func(r chi.Router) {
			r.Use(timeoutMW)

			r.Get("/preferences/catalog", preferencesHandler.Catalog)
			r.Get("/preferences", preferencesHandler.Get)
			r.Put("/preferences", preferencesHandler.Update)
			r.Get("/feed", feedHandler.Handle)

			r.Post("/rooms", roomsHandler.Create)
			r.Post("/rooms/join", roomsHandler.Join)
			r.Get("/rooms/{roomID}", roomsHandler.Get)
			r.Delete("/rooms/{roomID}", roomsHandler.Abandon)
			r.Post("/rooms/{roomID}/finish", roomsHandler.Finish)
			r.Post("/rooms/{roomID}/swipes", swipeHandler.Handle)
			r.Get("/rooms/{roomID}/swipes", swipeHandler.History)
			r.Get("/rooms/{roomID}/matches", matchesHandler.List)
		})
	})
}
