package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
)

// Swipe keeps a copy of the meal characteristics as they were when the
// participant decided, so later catalog edits do not change old results.
type Swipe struct {
	ID              uuid.UUID         `json:"id"`
	ParticipantID   uuid.UUID         `json:"participant_id"`
	MealID          int64             `json:"meal_id"`
	Action          enums.SwipeAction `json:"action"`
	Characteristics []string          `json:"characteristics"`
	CreatedAt       time.Time         `json:"created_at"`
}

// RoomLike is one LIKE inside a room with the characteristics captured at swipe time.
type RoomLike struct {
	ParticipantID   uuid.UUID `json:"participant_id"`
	MealID          int64     `json:"meal_id"`
	Characteristics []string  `json:"characteristics"`
	CreatedAt       time.Time `json:"created_at"`
}
