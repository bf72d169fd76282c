package model

type MatchResult struct {
	Meal                  Meal     `json:"meal"`
	ImageURL              string   `json:"image_url"`
	SharedCharacteristics []string `json:"shared_characteristics"`
	LikeCount             int      `json:"like_count"`
	Score                 int      `json:"score"`
}
