package rules

import (
	"errors"
	"strings"
)

var ErrUnknownPreference = errors.New("unknown dietary preference")

type PreferenceCategory struct {
	Name    string
	Options []string
}

var dietaryCatalog = []PreferenceCategory{
	{
		Name:    "General",
		Options: []string{"Vegan", "Vegetarian", "Pescetarian", "Flexitarian"},
	},
	{
		Name:    "Religious/Cultural",
		Options: []string{"Halal", "Kosher", "Jain", "Rastafarian"},
	},
	{
		Name: "Allergy & Health",
		Options: []string{
			"Gluten-Free",
			"Lactose-Free",
			"Nut-Free",
			"Low Carb/Keto",
			"Diabetic-Friendly",
			"Low FODMAP",
		},
	},
}

// DietaryCatalog returns a copy of the selectable preference tags.
func DietaryCatalog() []PreferenceCategory {
	out := make([]PreferenceCategory, 0, len(dietaryCatalog))
	for _, c := range dietaryCatalog {
		out = append(out, PreferenceCategory{
			Name:    c.Name,
			Options: append([]string(nil), c.Options...),
		})
	}
	return out
}

// NormalizePreferences matches tags case-insensitively against the catalog,
// drops duplicates and returns them in catalog order.
func NormalizePreferences(tags []string) ([]string, error) {
	selected := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		canonical, ok := canonicalPreference(tag)
		if !ok {
			return nil, ErrUnknownPreference
		}
		selected[canonical] = struct{}{}
	}

	out := make([]string, 0, len(selected))
	for _, c := range dietaryCatalog {
		for _, option := range c.Options {
			if _, ok := selected[option]; ok {
				out = append(out, option)
			}
		}
	}
	return out, nil
}

// MealMatchesPreferences keeps a meal in the feed when either side has no
// tags or when they share at least one.
func MealMatchesPreferences(userPrefs, mealPrefs []string) bool {
	if len(userPrefs) == 0 || len(mealPrefs) == 0 {
		return true
	}
	wanted := make(map[string]struct{}, len(userPrefs))
	for _, p := range userPrefs {
		wanted[p] = struct{}{}
	}
	for _, p := range mealPrefs {
		if _, ok := wanted[p]; ok {
			return true
		}
	}
	return false
}

func canonicalPreference(tag string) (string, bool) {
	value := strings.TrimSpace(tag)
	for _, c := range dietaryCatalog {
		for _, option := range c.Options {
			if strings.EqualFold(option, value) {
				return option, true
			}
		}
	}
	return "", false
}
