package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authsvc "github.com/ivankudzin/mealmatch/internal/services/auth"
)

func TestIssueAndValidateAccessToken(t *testing.T) {
	svc := authsvc.NewService(authsvc.NewJWTManager("secret", "mealmatch", time.Minute))
	userID := uuid.New()

	token, expiresAt, err := svc.IssueAccessToken(userID, "ann@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %s", expiresAt)
	}

	claims, err := svc.ValidateAccessToken(context.Background(), token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != userID || claims.Email != "ann@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	issuer := authsvc.NewService(authsvc.NewJWTManager("other", "mealmatch", time.Minute))
	token, _, err := issuer.IssueAccessToken(uuid.New(), "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc := authsvc.NewService(authsvc.NewJWTManager("secret", "mealmatch", time.Minute))
	if _, err := svc.ValidateAccessToken(context.Background(), token); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	issuer := authsvc.NewService(authsvc.NewJWTManager("secret", "someone-else", time.Minute))
	token, _, err := issuer.IssueAccessToken(uuid.New(), "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc := authsvc.NewService(authsvc.NewJWTManager("secret", "mealmatch", time.Minute))
	if _, err := svc.ValidateAccessToken(context.Background(), token); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    "mealmatch",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	svc := authsvc.NewService(authsvc.NewJWTManager("secret", "mealmatch", time.Minute))
	if _, err := svc.ValidateAccessToken(context.Background(), token); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestValidateRejectsNonUUIDSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "1001",
		Issuer:    "mealmatch",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	svc := authsvc.NewService(authsvc.NewJWTManager("secret", "mealmatch", time.Minute))
	if _, err := svc.ValidateAccessToken(context.Background(), token); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestIdentityContextRoundTrip(t *testing.T) {
	userID := uuid.New()
	ctx := authsvc.WithIdentity(context.Background(), authsvc.Identity{UserID: userID})

	identity, ok := authsvc.IdentityFromContext(ctx)
	if !ok || identity.UserID != userID {
		t.Fatalf("expected identity %s, got %+v ok=%v", userID, identity, ok)
	}
	if _, ok := authsvc.IdentityFromContext(context.Background()); ok {
		t.Fatalf("expected no identity in empty context")
	}
}
