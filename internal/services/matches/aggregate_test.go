package matches

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

var base = time.Date(2026, 2, 14, 19, 0, 0, 0, time.UTC)

func like(participant uuid.UUID, mealID int64, offset int, tags ...string) model.RoomLike {
	return model.RoomLike{
		ParticipantID:   participant,
		MealID:          mealID,
		Characteristics: tags,
		CreatedAt:       base.Add(time.Duration(offset) * time.Second),
	}
}

func TestAggregateOnlyMutualLikesMatch(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	const mealA, mealB, mealC = 1, 2, 3

	got := Aggregate([]model.RoomLike{
		like(p1, mealA, 0, "Sweet"),
		like(p1, mealB, 1, "Savory"),
		like(p2, mealB, 2, "Savory"),
		like(p2, mealC, 3, "Sour"),
	}, 2, 3)

	if len(got) != 1 || got[0].MealID != mealB {
		t.Fatalf("expected only meal B, got %+v", got)
	}
	if got[0].LikeCount != 2 {
		t.Fatalf("expected two likes, got %d", got[0].LikeCount)
	}
}

func TestAggregateScoresSwipeTimeSnapshots(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	got := Aggregate([]model.RoomLike{
		like(p1, 7, 0, "Spicy", "Vegan"),
		like(p2, 7, 1, "Spicy"),
	}, 2, 3)

	if len(got) != 1 {
		t.Fatalf("expected one match, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0].SharedCharacteristics, []string{"Spicy"}) {
		t.Fatalf("expected shared [Spicy], got %v", got[0].SharedCharacteristics)
	}
	// 3*1 shared + 2*2 likes + 5 unanimous
	if got[0].Score != 12 {
		t.Fatalf("expected score 12, got %d", got[0].Score)
	}
}

func TestAggregateWithoutUnanimousBonus(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	got := Aggregate([]model.RoomLike{
		like(p1, 7, 0, "Spicy", "Vegan"),
		like(p2, 7, 1, "Spicy"),
	}, 3, 3)

	if len(got) != 1 || got[0].Score != 7 {
		t.Fatalf("expected score 7 without unanimity, got %+v", got)
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil, 2, 3)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestAggregateRanksAndTruncates(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	likes := []model.RoomLike{
		// meal 10: no shared tags -> 0 + 4 + 5 = 9
		like(p1, 10, 0, "A"),
		like(p2, 10, 1, "B"),
		// meal 11: two shared -> 6 + 4 + 5 = 15
		like(p1, 11, 2, "Spicy", "Vegan"),
		like(p2, 11, 3, "Vegan", "Spicy"),
		// meal 12: one shared -> 3 + 4 + 5 = 12
		like(p1, 12, 4, "Spicy"),
		like(p2, 12, 5, "Spicy"),
		// meal 9: one shared, ties meal 12, lower id wins
		like(p1, 9, 6, "Fresh"),
		like(p2, 9, 7, "Fresh"),
	}

	got := Aggregate(likes, 2, 3)
	ids := make([]int64, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.MealID)
	}
	if !reflect.DeepEqual(ids, []int64{11, 9, 12}) {
		t.Fatalf("unexpected ranking %v", ids)
	}
	if full := Rank(likes, 2); len(full) != 4 || full[3].MealID != 10 {
		t.Fatalf("expected Rank to keep every candidate, got %+v", full)
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	likes := []model.RoomLike{
		like(p1, 1, 0, "X"), like(p2, 1, 1, "X"),
		like(p1, 2, 2, "Y"), like(p2, 2, 3, "Y"),
		like(p1, 3, 4, "Z"), like(p2, 3, 5, "Z"),
		like(p1, 4, 6, "W"), like(p2, 4, 7, "W"),
	}

	first := Aggregate(likes, 2, 3)
	for i := 0; i < 20; i++ {
		if again := Aggregate(likes, 2, 3); !reflect.DeepEqual(first, again) {
			t.Fatalf("aggregate changed between runs: %+v vs %+v", first, again)
		}
	}
}

func TestAggregateIgnoresRepeatedLikesFromOneParticipant(t *testing.T) {
	p1 := uuid.New()
	got := Aggregate([]model.RoomLike{
		like(p1, 5, 0, "Spicy"),
		like(p1, 5, 1, "Spicy"),
	}, 2, 3)
	if len(got) != 0 {
		t.Fatalf("expected no match from a single participant, got %+v", got)
	}
}

func TestSharedCharacteristics(t *testing.T) {
	tests := []struct {
		name  string
		lists [][]string
		want  []string
	}{
		{name: "empty", lists: nil, want: []string{}},
		{name: "single list verbatim", lists: [][]string{{"Vegan", "Spicy", "Vegan"}}, want: []string{"Vegan", "Spicy"}},
		{name: "two lists", lists: [][]string{{"Spicy", "Vegan"}, {"Spicy"}}, want: []string{"Spicy"}},
		{name: "nothing common", lists: [][]string{{"A"}, {"B"}}, want: []string{}},
		{
			name:  "frequency then first appearance",
			lists: [][]string{{"Crispy", "Spicy"}, {"Spicy", "Crispy", "Sweet"}, {"Sweet", "Spicy"}},
			want:  []string{"Spicy", "Crispy", "Sweet"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SharedCharacteristics(tc.lists)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
