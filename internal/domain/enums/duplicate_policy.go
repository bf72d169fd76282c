package enums

import "strings"

type DuplicateSwipePolicy string

const (
	DuplicateSwipeReject    DuplicateSwipePolicy = "reject"
	DuplicateSwipeOverwrite DuplicateSwipePolicy = "overwrite"
)

func ParseDuplicateSwipePolicy(input string) DuplicateSwipePolicy {
	if DuplicateSwipePolicy(strings.ToLower(strings.TrimSpace(input))) == DuplicateSwipeOverwrite {
		return DuplicateSwipeOverwrite
	}
	return DuplicateSwipeReject
}
