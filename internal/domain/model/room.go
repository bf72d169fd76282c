package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
)

type Room struct {
	ID        uuid.UUID        `json:"id"`
	Code      string           `json:"code"`
	CreatedBy uuid.UUID        `json:"created_by"`
	Status    enums.RoomStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type Participant struct {
	ID        uuid.UUID               `json:"id"`
	RoomID    uuid.UUID               `json:"room_id"`
	UserID    uuid.UUID               `json:"user_id"`
	Status    enums.ParticipantStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}
