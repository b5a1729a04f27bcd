package services

import (
	"strings"

	"rentalhub/internal/common"

	"github.com/labstack/gommon/random"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is lowered by tests.
var PasswordCost = bcrypt.DefaultCost

const minPasswordLength = 8

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateTemporaryPassword is the credential handed to provisioned accounts.
func GenerateTemporaryPassword() string {
	return random.String(12, random.Alphanumeric)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return common.NewValidationError("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return common.NewValidationError("a valid email is required")
	}
	return nil
}
