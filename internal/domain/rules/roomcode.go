package rules

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	RoomCodeLength   = 6
	roomCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var roomCodeAlphabetSize = big.NewInt(int64(len(roomCodeAlphabet)))

// NewRoomCode draws RoomCodeLength characters uniformly from [0-9A-Z].
// A nil source falls back to crypto/rand.
func NewRoomCode(source io.Reader) (string, error) {
	if source == nil {
		source = rand.Reader
	}

	var b strings.Builder
	b.Grow(RoomCodeLength)
	for i := 0; i < RoomCodeLength; i++ {
		n, err := rand.Int(source, roomCodeAlphabetSize)
		if err != nil {
			return "", fmt.Errorf("draw room code character: %w", err)
		}
		b.WriteByte(roomCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func NormalizeRoomCode(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}

func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(roomCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
