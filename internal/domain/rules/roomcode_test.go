package rules

import (
	"bytes"
	"testing"
)

func TestNewRoomCodeUsesAlphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewRoomCode(nil)
		if err != nil {
			t.Fatalf("new room code: %v", err)
		}
		if !ValidRoomCode(code) {
			t.Fatalf("generated invalid code %q", code)
		}
	}
}

func TestNewRoomCodeIsDeterministicForSource(t *testing.T) {
	source := bytes.NewReader([]byte{0, 1, 2, 10, 11, 35})

	code, err := NewRoomCode(source)
	if err != nil {
		t.Fatalf("new room code: %v", err)
	}
	if code != "012ABZ" {
		t.Fatalf("unexpected code: got %q want %q", code, "012ABZ")
	}
}

func TestNewRoomCodeFailsOnExhaustedSource(t *testing.T) {
	if _, err := NewRoomCode(bytes.NewReader([]byte{1, 2})); err == nil {
		t.Fatalf("expected error for short random source")
	}
}

func TestValidRoomCode(t *testing.T) {
	valid := []string{"ABC123", "000000", "ZZZZZZ"}
	invalid := []string{"", "abc123", "ABC12", "ABC1234", "ABC-12", "ÄBC123"}

	for _, code := range valid {
		if !ValidRoomCode(code) {
			t.Fatalf("expected %q to be valid", code)
		}
	}
	for _, code := range invalid {
		if ValidRoomCode(code) {
			t.Fatalf("expected %q to be invalid", code)
		}
	}
}

func TestNormalizeRoomCode(t *testing.T) {
	if got := NormalizeRoomCode("  ab12cd "); got != "AB12CD" {
		t.Fatalf("unexpected normalized code: %q", got)
	}
}
