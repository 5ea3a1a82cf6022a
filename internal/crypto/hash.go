package crypto

import (
	"fmt"

	"github.com/alexedwards/argon2id"
)

// HashPassword hashes a password with Argon2id and a fresh random
// salt. Returns the hash in PHC string format, so two hashes of the
// same password always differ.
func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return hash, nil
}

// VerifyPassword checks whether a password matches the given Argon2id
// encoded hash using a constant-time comparison.
func VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}
