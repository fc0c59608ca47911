// go-utils/password.go
package utils

import "golang.org/x/crypto/bcrypt"

const DefaultBcryptCost = 12

// NormalizeBcryptCost maps an out-of-range cost to DefaultBcryptCost.
func NormalizeBcryptCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return DefaultBcryptCost
	}
	return cost
}

// HashPassword generates a bcrypt hash of the password with a fresh salt.
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), NormalizeBcryptCost(cost))
	return string(bytes), err
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
// A mismatch or a malformed hash is reported as false.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
