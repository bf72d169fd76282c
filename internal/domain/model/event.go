package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
)

type RoomEvent struct {
	Type          enums.RoomEventType `json:"type"`
	RoomID        uuid.UUID           `json:"room_id"`
	ParticipantID *uuid.UUID          `json:"participant_id,omitempty"`
	Status        enums.RoomStatus    `json:"status"`
	OccurredAt    time.Time           `json:"occurred_at"`
}
