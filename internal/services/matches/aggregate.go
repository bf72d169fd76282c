package matches

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

const (
	DefaultTopN = 3

	sharedWeight    = 3
	likeWeight      = 2
	unanimousBonus  = 5
	minLikesToMatch = 2
)

// Candidate is a scored meal before catalog data is attached.
type Candidate struct {
	MealID                int64
	SharedCharacteristics []string
	LikeCount             int
	Score                 int
}

type mealLikes struct {
	mealID int64
	order  int
	byUser map[uuid.UUID]bool
	tags   [][]string
}

// Aggregate is Rank cut to topN.
func Aggregate(likes []model.RoomLike, participantCount, topN int) []Candidate {
	if topN <= 0 {
		topN = DefaultTopN
	}
	out := Rank(likes, participantCount)
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Rank scores every meal liked by at least two participants. Likes must be
// in swipe order; that order decides ties between equally frequent tags.
// The result is sorted by score, like count, shared tag count and meal id.
func Rank(likes []model.RoomLike, participantCount int) []Candidate {
	groups := make(map[int64]*mealLikes)
	for _, like := range likes {
		g, ok := groups[like.MealID]
		if !ok {
			g = &mealLikes{mealID: like.MealID, order: len(groups), byUser: make(map[uuid.UUID]bool)}
			groups[like.MealID] = g
		}
		if g.byUser[like.ParticipantID] {
			continue
		}
		g.byUser[like.ParticipantID] = true
		g.tags = append(g.tags, like.Characteristics)
	}

	out := make([]Candidate, 0, len(groups))
	for _, g := range groups {
		likeCount := len(g.byUser)
		if likeCount < minLikesToMatch {
			continue
		}

		shared := SharedCharacteristics(g.tags)
		score := sharedWeight*len(shared) + likeWeight*likeCount
		if likeCount == participantCount {
			score += unanimousBonus
		}
		out = append(out, Candidate{
			MealID:                g.mealID,
			SharedCharacteristics: shared,
			LikeCount:             likeCount,
			Score:                 score,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.LikeCount != b.LikeCount {
			return a.LikeCount > b.LikeCount
		}
		if len(a.SharedCharacteristics) != len(b.SharedCharacteristics) {
			return len(a.SharedCharacteristics) > len(b.SharedCharacteristics)
		}
		return a.MealID < b.MealID
	})
	return out
}

// SharedCharacteristics returns the tags present in at least min(2, n) of
// the n per-participant lists, most frequent first. Equal frequencies keep
// the order of first appearance. A single list comes back deduplicated in
// its own order.
func SharedCharacteristics(lists [][]string) []string {
	if len(lists) == 0 {
		return []string{}
	}
	threshold := min(2, len(lists))

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, list := range lists {
		seen := make(map[string]bool, len(list))
		for _, tag := range list {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			if _, ok := counts[tag]; !ok {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	shared := make([]string, 0, len(order))
	for _, tag := range order {
		if counts[tag] >= threshold {
			shared = append(shared, tag)
		}
	}
	sort.SliceStable(shared, func(i, j int) bool {
		return counts[shared[i]] > counts[shared[j]]
	})
	return shared
}
