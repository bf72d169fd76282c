package enums

type RoomStatus string

const (
	RoomStatusOpen     RoomStatus = "open"
	RoomStatusPlaying  RoomStatus = "playing"
	RoomStatusFinished RoomStatus = "finished"
)

// CanTransition reports whether a room may move from s to next.
// Rooms only move forward: open -> playing -> finished.
func (s RoomStatus) CanTransition(next RoomStatus) bool {
	switch s {
	case RoomStatusOpen:
		return next == RoomStatusPlaying
	case RoomStatusPlaying:
		return next == RoomStatusFinished
	default:
		return false
	}
}
