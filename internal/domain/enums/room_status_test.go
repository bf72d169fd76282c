package enums

import "testing"

func TestRoomStatusCanTransition(t *testing.T) {
	cases := []struct {
		from, to RoomStatus
		want     bool
	}{
		{RoomStatusOpen, RoomStatusPlaying, true},
		{RoomStatusPlaying, RoomStatusFinished, true},
		{RoomStatusOpen, RoomStatusFinished, false},
		{RoomStatusPlaying, RoomStatusOpen, false},
		{RoomStatusFinished, RoomStatusPlaying, false},
		{RoomStatusFinished, RoomStatusOpen, false},
		{RoomStatusOpen, RoomStatusOpen, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: got %v want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
