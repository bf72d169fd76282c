package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/catalog"
	"github.com/ivankudzin/mealmatch/internal/config"
	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	kafkainfra "github.com/ivankudzin/mealmatch/internal/infra/kafka"
	s3infra "github.com/ivankudzin/mealmatch/internal/infra/s3"
	"github.com/ivankudzin/mealmatch/internal/jobs/cleanup"
	"github.com/ivankudzin/mealmatch/internal/repo/memory"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
	redrepo "github.com/ivankudzin/mealmatch/internal/repo/redis"
	authsvc "github.com/ivankudzin/mealmatch/internal/services/auth"
	eventsvc "github.com/ivankudzin/mealmatch/internal/services/events"
	feedsvc "github.com/ivankudzin/mealmatch/internal/services/feed"
	matchessvc "github.com/ivankudzin/mealmatch/internal/services/matches"
	mediasvc "github.com/ivankudzin/mealmatch/internal/services/media"
	ratesvc "github.com/ivankudzin/mealmatch/internal/services/rate"
	roomsvc "github.com/ivankudzin/mealmatch/internal/services/rooms"
	swipesvc "github.com/ivankudzin/mealmatch/internal/services/swipes"
	userssvc "github.com/ivankudzin/mealmatch/internal/services/users"
	"github.com/ivankudzin/mealmatch/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	kafka      *kafkainfra.Sink
	localBus   *eventsvc.LocalBus
	fanout     *eventsvc.Fanout
	sweep      *cleanup.Job
	httpRouter http.Handler

	// jobsMu guards the background job lifecycle shared by Run and Shutdown.
	jobsMu   sync.Mutex
	stopped  bool
	stopJobs context.CancelFunc
	jobsDone chan struct{}
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, cfg.HTTP.Throttle)

	app := &App{cfg: cfg, logger: log, httpRouter: r}
	healthChecks := map[string]handlers.Pinger{}

	var repos stores
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		repos = memoryStores(memory.NewStore())
	default:
		if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
			log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
		} else {
			app.postgres = p
			healthChecks["postgres"] = p
		}
		repos = postgresStores(app.postgres)
	}

	var (
		publisher  eventsvc.Publisher
		subscriber eventsvc.Subscriber
		rateRepo   *redrepo.RateRepo
		mealCache  feedsvc.CatalogCache
	)
	if cfg.Redis.Addr != "" {
		app.redis = redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		bus := redrepo.NewEventBus(app.redis, log)
		publisher, subscriber = bus, bus
		rateRepo = redrepo.NewRateRepo(app.redis)
		if cfg.Feed.CacheTTL > 0 {
			mealCache = redrepo.NewCacheRepo(app.redis, cfg.Feed.CacheTTL)
		}
		redisClient := app.redis
		healthChecks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		log.Warn("redis is not configured, room events stay in process")
		app.localBus = eventsvc.NewLocalBus()
		publisher, subscriber = app.localBus, app.localBus
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := kafkainfra.NewSink(kafkainfra.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			ClientID:     cfg.Kafka.ClientID,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
		if err != nil {
			log.Warn("kafka sink init failed, continuing without event export", zap.Error(err))
		} else {
			app.kafka = sink
			app.fanout = eventsvc.NewFanout(publisher, log, sink)
			publisher = app.fanout
		}
	}

	var imageStorage mediasvc.ObjectStorage
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		imageStorage = mediasvc.NewS3Storage(c, cfg.S3.Bucket, cfg.S3.PublicBaseURL != "")
	}
	mediaService := mediasvc.NewService(imageStorage, mediasvc.Config{
		PublicBaseURL: cfg.S3.PublicBaseURL,
		SignedURLTTL:  cfg.S3.PresignTTL,
	})

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager)

	roomService := roomsvc.NewService(roomsvc.Dependencies{
		Tx:           repos.tx,
		Rooms:        repos.rooms,
		Participants: repos.participants,
		Publisher:    publisher,
		Subscriber:   subscriber,
		Logger:       log,
	}, roomsvc.Config{
		CreationCooldown: cfg.Rooms.CreationCooldown,
		CodeAttempts:     cfg.Rooms.CodeAttempts,
		AllowRejoin:      cfg.Rooms.AllowRejoin,
	})

	duplicatePolicy := enums.ParseDuplicateSwipePolicy(cfg.Swipes.DuplicatePolicy)
	var swipeLimiter swipesvc.RateLimiter
	if rateRepo != nil {
		swipeLimiter = ratesvc.NewSwipeLimiter(rateRepo, cfg.Swipes.RatePerMinute, cfg.Swipes.RatePer10Sec)
	}
	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Rooms:        repos.rooms,
		Participants: repos.participants,
		Swipes:       repos.swipes,
		Meals:        repos.meals,
		RateLimiter:  swipeLimiter,
		Logger:       log,
	}, swipesvc.Config{DuplicatePolicy: duplicatePolicy})

	matchService := matchessvc.NewService(matchessvc.Dependencies{
		Rooms:        repos.rooms,
		Participants: repos.participants,
		Likes:        repos.swipes,
		Meals:        repos.meals,
		Images:       mediaService,
		Logger:       log,
	}, matchessvc.Config{TopN: cfg.Matches.TopN})

	feedService := feedsvc.NewService(feedsvc.Dependencies{
		Meals:       repos.meals,
		Preferences: repos.preferences,
		Cache:       mealCache,
		Images:      mediaService,
		Logger:      log,
	})
	preferencesService := userssvc.NewService(repos.preferences)

	if cfg.Storage.SeedFile != "" {
		var invalidator catalog.CacheInvalidator
		if c, ok := mealCache.(catalog.CacheInvalidator); ok {
			invalidator = c
		}
		var uploader catalog.ImageUploader
		if imageStorage != nil {
			uploader = mediaService
		}
		if err := seedCatalog(ctx, cfg.Storage.SeedFile, repos.meals, uploader, invalidator, log); err != nil {
			log.Warn("meal catalog seed failed, continuing with existing catalog", zap.Error(err))
		}
	}

	app.sweep = cleanup.NewRoomSweepJob(roomService, cfg.Rooms.OpenTTL, cfg.Rooms.SweepInterval, log)

	RegisterRoutes(r, Dependencies{
		AuthService:        authService,
		FeedService:        feedService,
		MatchService:       matchService,
		PreferencesService: preferencesService,
		RoomService:        roomService,
		SwipeService:       swipeService,
		HealthChecks:       healthChecks,
		Logger:             log,
		Config:             cfg,
	})

	app.server = &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     r,
		ReadTimeout: cfg.HTTP.ReadTimeout,
		IdleTimeout: cfg.HTTP.IdleTimeout,
	}

	return app, nil
}

func seedCatalog(ctx context.Context, path string, meals catalog.MealUpserter, images catalog.ImageUploader, cache catalog.CacheInvalidator, log *zap.Logger) error {
	file, err := catalog.Load(path)
	if err != nil {
		return err
	}
	_, err = catalog.NewImporter(meals, images, cache, filepath.Dir(path), log).Import(ctx, file)
	return err
}

func (a *App) Run() error {
	a.jobsMu.Lock()
	if a.stopped {
		a.jobsMu.Unlock()
		return nil
	}
	jobsCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.stopJobs, a.jobsDone = cancel, done
	a.jobsMu.Unlock()

	go func() {
		defer close(done)
		a.sweep.Start(jobsCtx)
	}()

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	a.jobsMu.Lock()
	a.stopped = true
	stop, done := a.stopJobs, a.jobsDone
	a.jobsMu.Unlock()

	if stop != nil {
		stop()
		select {
		case <-done:
		case <-ctx.Done():
			shutdownErr = ctx.Err()
		}
	}
	if err := a.server.Shutdown(ctx); err != nil && shutdownErr == nil {
		shutdownErr = err
	}
	if a.fanout != nil {
		a.fanout.Close()
	}
	if a.localBus != nil {
		a.localBus.Close()
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
