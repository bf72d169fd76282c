package apiapp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
	"github.com/ivankudzin/mealmatch/internal/repo/memory"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
	matchessvc "github.com/ivankudzin/mealmatch/internal/services/matches"
	roomsvc "github.com/ivankudzin/mealmatch/internal/services/rooms"
	swipesvc "github.com/ivankudzin/mealmatch/internal/services/swipes"
)

type swipeRepo interface {
	swipesvc.SwipeStore
	matchessvc.LikeReader
}

type mealRepo interface {
	List(ctx context.Context) ([]model.Meal, error)
	GetByID(ctx context.Context, mealID int64) (model.Meal, error)
	Upsert(ctx context.Context, meal model.Meal) (model.Meal, error)
}

type preferenceRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (model.UserPreferences, error)
	Save(ctx context.Context, userID uuid.UUID, preferences []string, now time.Time) (model.UserPreferences, error)
}

// stores is one backend for every repository the services need.
type stores struct {
	tx           roomsvc.TxRunner
	rooms        roomsvc.RoomStore
	participants roomsvc.ParticipantStore
	swipes       swipeRepo
	meals        mealRepo
	preferences  preferenceRepo
}

func postgresStores(pool *pgxpool.Pool) stores {
	return stores{
		tx:           pgrepo.NewTxManager(pool),
		rooms:        pgrepo.NewRoomRepo(pool),
		participants: pgrepo.NewParticipantRepo(pool),
		swipes:       pgrepo.NewSwipeRepo(pool),
		meals:        pgrepo.NewMealRepo(pool),
		preferences:  pgrepo.NewPreferenceRepo(pool),
	}
}

func memoryStores(store *memory.Store) stores {
	return stores{
		tx:           store,
		rooms:        store.Rooms(),
		participants: store.Participants(),
		swipes:       store.Swipes(),
		meals:        store.Meals(),
		preferences:  store.Preferences(),
	}
}
