package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service validates bearer tokens issued by the identity provider that
// shares the signing secret. Token issuance here exists for local tooling.
type Service struct {
	jwt *JWTManager
}

func NewService(jwtManager *JWTManager) *Service {
	return &Service{jwt: jwtManager}
}

func (s *Service) ValidateAccessToken(_ context.Context, accessToken string) (AccessClaims, error) {
	if s == nil || s.jwt == nil {
		return AccessClaims{}, ErrUnauthorized
	}
	return s.jwt.ParseAccessToken(strings.TrimSpace(accessToken))
}

func (s *Service) IssueAccessToken(userID uuid.UUID, email string) (string, time.Time, error) {
	if s == nil || s.jwt == nil {
		return "", time.Time{}, ErrInvalidInput
	}
	if userID == uuid.Nil {
		return "", time.Time{}, ErrInvalidInput
	}
	return s.jwt.GenerateAccessToken(userID, email)
}
