package dto

import "time"

type PreferenceCategoryResponse struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type PreferenceCatalogResponse struct {
	Categories []PreferenceCategoryResponse `json:"categories"`
}

type UpdatePreferencesRequest struct {
	Preferences []string `json:"preferences" validate:"max=32,dive,required,max=64"`
}

type PreferencesResponse struct {
	Preferences []string   `json:"preferences"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}
