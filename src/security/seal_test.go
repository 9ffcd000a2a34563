package security

import (
	"errors"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	plaintext := "EAAGm0PX4ZCpsBO7rBZCZBxyz-platform-access-token"

	sealed, err := SealString(plaintext)
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}
	if string(sealed) == plaintext {
		t.Fatal("sealed token must not contain the plaintext")
	}

	opened, err := OpenString(sealed)
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	if opened != plaintext {
		t.Fatalf("round trip mismatch: %q", opened)
	}
}

func TestSealIsRandomized(t *testing.T) {
	first, err := SealString("token")
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}
	second, err := SealString("token")
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}

	if string(first) == string(second) {
		t.Fatal("sealing the same plaintext twice must not repeat the nonce")
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	sealed, err := SealString("token")
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}

	sealed[len(sealed)-1] ^= 0x01

	if _, err := OpenString(sealed); !errors.Is(err, ErrInvalidSealedToken) {
		t.Fatalf("expected ErrInvalidSealedToken, got %v", err)
	}
}

func TestOpenRejectsTruncatedInput(t *testing.T) {
	if _, err := OpenString([]byte("short")); !errors.Is(err, ErrInvalidSealedToken) {
		t.Fatalf("expected ErrInvalidSealedToken, got %v", err)
	}
}
