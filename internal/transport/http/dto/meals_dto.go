package dto

import "github.com/ivankudzin/mealmatch/internal/domain/model"

type MealResponse struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	ImageURL           string   `json:"image_url"`
	Characteristics    []string `json:"characteristics"`
	DietaryPreferences []string `json:"dietary_preferences"`
}

type FeedResponse struct {
	Items []MealResponse `json:"items"`
}

type MatchItemResponse struct {
	Meal                  MealResponse `json:"meal"`
	SharedCharacteristics []string     `json:"shared_characteristics"`
	LikeCount             int          `json:"like_count"`
	Score                 int          `json:"score"`
}

type MatchesResponse struct {
	Items   []MatchItemResponse `json:"items"`
	Partial bool                `json:"partial"`
}

func NewMealResponse(meal model.Meal, imageURL string) MealResponse {
	return MealResponse{
		ID:                 meal.ID,
		Name:               meal.Name,
		ImageURL:           imageURL,
		Characteristics:    nonNilStrings(meal.Characteristics),
		DietaryPreferences: nonNilStrings(meal.DietaryPreferences),
	}
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
