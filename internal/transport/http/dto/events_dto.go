package dto

import (
	"time"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

type RoomEventMessage struct {
	Type          string    `json:"type"`
	RoomID        string    `json:"room_id"`
	ParticipantID string    `json:"participant_id,omitempty"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewRoomEventMessage(event model.RoomEvent) RoomEventMessage {
	msg := RoomEventMessage{
		Type:       string(event.Type),
		RoomID:     event.RoomID.String(),
		Status:     string(event.Status),
		OccurredAt: event.OccurredAt,
	}
	if event.ParticipantID != nil {
		msg.ParticipantID = event.ParticipantID.String()
	}
	return msg
}
