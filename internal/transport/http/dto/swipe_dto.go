package dto

import (
	"time"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

type SwipeRequest struct {
	MealID int64  `json:"meal_id" validate:"required,gt=0"`
	Action string `json:"action" validate:"required"`
}

type SwipeResponse struct {
	OK        bool       `json:"ok"`
	Duplicate bool       `json:"duplicate"`
	Swipe     *SwipeItem `json:"swipe,omitempty"`
}

type SwipeItem struct {
	ID              string    `json:"id"`
	ParticipantID   string    `json:"participant_id"`
	MealID          int64     `json:"meal_id"`
	Action          string    `json:"action"`
	Characteristics []string  `json:"characteristics"`
	CreatedAt       time.Time `json:"created_at"`
}

type SwipeHistoryResponse struct {
	Items []SwipeItem `json:"items"`
}

func NewSwipeItem(s model.Swipe) SwipeItem {
	chars := s.Characteristics
	if chars == nil {
		chars = []string{}
	}
	return SwipeItem{
		ID:              s.ID.String(),
		ParticipantID:   s.ParticipantID.String(),
		MealID:          s.MealID,
		Action:          string(s.Action),
		Characteristics: chars,
		CreatedAt:       s.CreatedAt,
	}
}
