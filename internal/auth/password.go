package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when asked to hash a blank dashboard password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// HashPassword produces the bcrypt hash stored in a dashboard account's
// password_hash setting. It backs the --hash-password flag. A cost of zero or less
// means bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash dashboard password: %w", err)
	}
	return string(hashed), nil
}

// passwordMatches reports whether plain is the password of a configured account.
// A malformed hash never matches.
func passwordMatches(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
