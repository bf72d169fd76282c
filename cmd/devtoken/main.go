package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ivankudzin/mealmatch/internal/config"
	authsvc "github.com/ivankudzin/mealmatch/internal/services/auth"
)

// devtoken prints an access token for local testing.
func main() {
	var (
		userID = flag.String("user", "", "user id (random when empty)")
		email  = flag.String("email", "", "email claim")
		ttl    = flag.Duration("ttl", 0, "token lifetime (config value when zero)")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fail(err)
	}

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fail(err)
	}

	id := uuid.New()
	if *userID != "" {
		if id, err = uuid.Parse(*userID); err != nil {
			fail(fmt.Errorf("parse user id: %w", err))
		}
	}

	accessTTL := cfg.Auth.JWTAccessTTL
	if *ttl > 0 {
		accessTTL = *ttl
	}
	svc := authsvc.NewService(authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, accessTTL))
	token, expiresAt, err := svc.IssueAccessToken(id, *email)
	if err != nil {
		fail(err)
	}

	fmt.Fprintf(os.Stderr, "user_id=%s expires_at=%s\n", id, expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "devtoken:", err)
	os.Exit(1)
}
