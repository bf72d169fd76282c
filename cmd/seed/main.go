package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/catalog"
	"github.com/ivankudzin/mealmatch/internal/config"
	"github.com/ivankudzin/mealmatch/internal/infra/logger"
	s3infra "github.com/ivankudzin/mealmatch/internal/infra/s3"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
	redrepo "github.com/ivankudzin/mealmatch/internal/repo/redis"
	mediasvc "github.com/ivankudzin/mealmatch/internal/services/media"
)

// seed imports a YAML meal catalog into postgres.
func main() {
	catalogPath := flag.String("catalog", "configs/meals.yaml", "meal catalog file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	file, err := catalog.Load(*catalogPath)
	if err != nil {
		log.Fatal("load meal catalog", zap.String("path", *catalogPath), zap.Error(err))
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	var images catalog.ImageUploader
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, only absolute image urls can be imported", zap.Error(err))
	} else {
		images = mediasvc.NewService(mediasvc.NewS3Storage(c, cfg.S3.Bucket, cfg.S3.PublicBaseURL != ""), mediasvc.Config{
			PublicBaseURL: cfg.S3.PublicBaseURL,
			SignedURLTTL:  cfg.S3.PresignTTL,
		})
	}

	var cache catalog.CacheInvalidator
	if cfg.Redis.Addr != "" {
		client := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer client.Close()
		cache = redrepo.NewCacheRepo(client, cfg.Feed.CacheTTL)
	}

	importer := catalog.NewImporter(pgrepo.NewMealRepo(pool), images, cache, filepath.Dir(*catalogPath), log)
	if _, err := importer.Import(ctx, file); err != nil {
		log.Fatal("import meal catalog", zap.Error(err))
	}
}
