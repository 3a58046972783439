package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
	}{
		{name: "simple password", password: "password123"},
		{name: "symbols", password: "P@ssw0rd!#$%^&*()"},
		{name: "long password", password: strings.Repeat("a", 72)},
		{name: "unicode password", password: "пароль密码123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if hash == "" || hash == tt.password {
				t.Errorf("Hash() = %q, want a non-empty hash distinct from the input", hash)
			}
			if !hasher.Verify(tt.password, hash) {
				t.Error("Verify() = false for the correct password")
			}
			if hasher.Verify(tt.password+"x", hash) {
				t.Error("Verify() = true for a wrong password")
			}
		})
	}
}

func TestPasswordHasher_HashesAreSalted(t *testing.T) {
	hasher := NewPasswordHasherWithCost(bcrypt.MinCost)

	first, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password are identical, expected distinct salts")
	}
}

func TestNewPasswordHasherWithCost_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		cost int
	}{
		{name: "below minimum", cost: bcrypt.MinCost - 1},
		{name: "above maximum", cost: bcrypt.MaxCost + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hasher := NewPasswordHasherWithCost(tt.cost)
			if hasher.cost != DefaultBcryptCost {
				t.Errorf("cost = %d, want default %d", hasher.cost, DefaultBcryptCost)
			}
		})
	}
}
