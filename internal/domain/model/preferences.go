package model

import (
	"time"

	"github.com/google/uuid"
)

type UserPreferences struct {
	UserID      uuid.UUID `json:"user_id"`
	Preferences []string  `json:"preferences"`
	UpdatedAt   time.Time `json:"updated_at"`
}
