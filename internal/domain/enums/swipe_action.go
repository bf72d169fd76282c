package enums

import "strings"

type SwipeAction string

const (
	SwipeActionLike    SwipeAction = "LIKE"
	SwipeActionDislike SwipeAction = "DISLIKE"
)

// ParseSwipeAction accepts the upper case names as well as the
// "like"/"liked"/"disliked" spellings mobile clients send.
func ParseSwipeAction(input string) (SwipeAction, bool) {
	value := strings.ToUpper(strings.TrimSpace(input))
	switch value {
	case "LIKE", "LIKED", "RIGHT":
		return SwipeActionLike, true
	case "DISLIKE", "DISLIKED", "LEFT":
		return SwipeActionDislike, true
	default:
		return "", false
	}
}

func (a SwipeAction) IsValid() bool {
	return a == SwipeActionLike || a == SwipeActionDislike
}
