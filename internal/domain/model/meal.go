package model

type Meal struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	ImageRef           string   `json:"image_ref"`
	Characteristics    []string `json:"characteristics"`
	DietaryPreferences []string `json:"dietary_preferences"`
	Position           int      `json:"position"`
}
