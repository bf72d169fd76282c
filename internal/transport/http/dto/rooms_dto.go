package dto

import (
	"time"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

type JoinRoomRequest struct {
	Code string `json:"code" validate:"required,max=16"`
}

type ParticipantResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type RoomResponse struct {
	ID           string                `json:"id"`
	Code         string                `json:"code"`
	CreatedBy    string                `json:"created_by"`
	Status       string                `json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
	Participants []ParticipantResponse `json:"participants,omitempty"`
}

type AbandonRoomResponse struct {
	OK      bool `json:"ok"`
	Deleted bool `json:"deleted"`
}

func NewRoomResponse(room model.Room, participants []model.Participant) RoomResponse {
	resp := RoomResponse{
		ID:        room.ID.String(),
		Code:      room.Code,
		CreatedBy: room.CreatedBy.String(),
		Status:    string(room.Status),
		CreatedAt: room.CreatedAt,
	}
	for _, p := range participants {
		resp.Participants = append(resp.Participants, ParticipantResponse{
			ID:        p.ID.String(),
			UserID:    p.UserID.String(),
			Status:    string(p.Status),
			CreatedAt: p.CreatedAt,
		})
	}
	return resp
}
