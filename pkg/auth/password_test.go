package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("s3cret!")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if digest == "s3cret!" {
		t.Fatal("digest must not equal the plaintext")
	}
	if err := h.Compare(digest, "s3cret!"); err != nil {
		t.Fatalf("Compare() with the right password: %v", err)
	}
	if err := h.Compare(digest, "wrong"); err == nil {
		t.Fatal("Compare() accepted a wrong password")
	}
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	if got := NewBcryptHasher(99).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want default", got)
	}
}
