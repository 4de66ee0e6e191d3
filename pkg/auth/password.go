package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// ErrPasswordTooShort is returned for passwords under the minimum length.
var ErrPasswordTooShort = errors.New("password must be at least 6 characters")

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword validates a password against a stored bcrypt hash.
func CheckPassword(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// ValidatePassword enforces the registration password policy.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
