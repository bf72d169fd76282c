package users

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/ivankudzin/mealmatch/internal/repo/memory"
)

func TestSaveNormalizesPreferences(t *testing.T) {
	svc := NewService(memory.NewStore().Preferences())
	userID := uuid.New()

	saved, err := svc.Save(context.Background(), userID, []string{"nut-free", "Vegan", "vegan", " halal "})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	want := []string{"Vegan", "Halal", "Nut-Free"}
	if !reflect.DeepEqual(saved.Preferences, want) {
		t.Fatalf("expected %v, got %v", want, saved.Preferences)
	}

	got, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got.Preferences, want) {
		t.Fatalf("expected stored %v, got %v", want, got.Preferences)
	}
}

func TestSaveRejectsUnknownTag(t *testing.T) {
	svc := NewService(memory.NewStore().Preferences())
	userID := uuid.New()

	if _, err := svc.Save(context.Background(), userID, []string{"Vegan", "Carnivore"}); !errors.Is(err, ErrUnknownPreference) {
		t.Fatalf("expected ErrUnknownPreference, got %v", err)
	}
	got, _ := svc.Get(context.Background(), userID)
	if len(got.Preferences) != 0 {
		t.Fatalf("expected nothing saved, got %v", got.Preferences)
	}
}

func TestSaveEmptyClearsPreferences(t *testing.T) {
	svc := NewService(memory.NewStore().Preferences())
	userID := uuid.New()

	if _, err := svc.Save(context.Background(), userID, []string{"Kosher"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	cleared, err := svc.Save(context.Background(), userID, nil)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.Preferences == nil || len(cleared.Preferences) != 0 {
		t.Fatalf("expected empty non-nil preferences, got %#v", cleared.Preferences)
	}
}

func TestCatalogCategories(t *testing.T) {
	catalog := NewService(nil).Catalog()
	if len(catalog) != 3 || catalog[0].Name != "General" || catalog[2].Name != "Allergy & Health" {
		t.Fatalf("unexpected catalog %+v", catalog)
	}
}
