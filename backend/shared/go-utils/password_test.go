package utils

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Fatalf("Expected a bcrypt hash, got %q", hash)
	}
	if !CheckPasswordHash("correct horse battery staple", hash) {
		t.Fatal("Expected the original password to verify")
	}
	if CheckPasswordHash("wrong password", hash) {
		t.Fatal("Expected a wrong password to be rejected")
	}
}

func TestHashPasswordSaltsEachHash(t *testing.T) {
	a, err := HashPassword("same-password", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	b, err := HashPassword("same-password", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if a == b {
		t.Fatal("Expected two hashes of the same password to differ")
	}
}

func TestCheckPasswordHashMalformedHash(t *testing.T) {
	if CheckPasswordHash("anything", "not-a-bcrypt-hash") {
		t.Fatal("Expected malformed hash to report false")
	}
}

func TestNormalizeBcryptCost(t *testing.T) {
	cases := map[int]int{
		0:                  DefaultBcryptCost,
		3:                  DefaultBcryptCost,
		bcrypt.MinCost:     bcrypt.MinCost,
		10:                 10,
		bcrypt.MaxCost:     bcrypt.MaxCost,
		bcrypt.MaxCost + 1: DefaultBcryptCost,
	}
	for in, want := range cases {
		if got := NormalizeBcryptCost(in); got != want {
			t.Errorf("NormalizeBcryptCost(%d) = %d, want %d", in, got, want)
		}
	}
}
