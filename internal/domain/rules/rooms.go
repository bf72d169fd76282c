package rules

import "time"

const (
	RoomCapacity         = 2
	RoomCreationCooldown = 2 * time.Minute
	OpenRoomTTL          = 15 * time.Minute
)

// CooldownRemaining returns how long a user still has to wait before creating
// another room, or zero when the last room is old enough.
func CooldownRemaining(lastCreatedAt, now time.Time, cooldown time.Duration) time.Duration {
	if lastCreatedAt.IsZero() || cooldown <= 0 {
		return 0
	}
	elapsed := now.Sub(lastCreatedAt)
	if elapsed < 0 {
		return cooldown
	}
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}

func CeilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	return sec
}
