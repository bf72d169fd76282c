package apiapp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/config"
)

func newMemoryApp(t *testing.T) *App {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Storage.Driver = config.StorageDriverMemory
	cfg.Redis.Addr = mr.Addr()
	cfg.S3.Endpoint = ""
	cfg.Auth.JWTSecret = "secret"

	app, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	return app
}

func TestRunThenShutdownBackToBack(t *testing.T) {
	app := newMemoryApp(t)

	runErr := make(chan error, 1)
	go func() { runErr <- app.Run() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after shutdown")
	}
}

func TestRunAfterShutdownReturnsImmediately(t *testing.T) {
	app := newMemoryApp(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := app.Run(); err != nil {
		t.Fatalf("run after shutdown returned %v", err)
	}
}
