// internal/pkg/auth/password.go
package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything longer
)

var (
	sequentialRun = regexp.MustCompile(`(?i)(abc|bcd|cde|def|efg|fgh|ghi|hij|ijk|jkl|klm|lmn|mno|nop|opq|pqr|qrs|rst|stu|tuv|uvw|vwx|wxy|xyz|012|123|234|345|456|567|678|789)`)

	commonPasswords = []string{
		"password", "qwerty", "letmein", "welcome", "admin", "monkey", "dragon", "football",
	}
)

// PasswordManager hashes and checks user passwords
type PasswordManager struct {
	cost int
}

// NewPasswordManager uses the bcrypt cost from the security config
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	cost := cfg.Security.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordManager{cost: cost}
}

// HashPassword enforces the password policy and returns a bcrypt hash.
// Policy violations are InvalidInput errors.
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword compares a password with its stored hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword checks length, character classes and obvious patterns
func ValidatePassword(password string) error {
	switch {
	case len(password) < minPasswordLength:
		return weakPassword("password must be at least %d characters long", minPasswordLength)
	case len(password) > maxPasswordLength:
		return weakPassword("password must be no more than %d characters long", maxPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	var missing []string
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if !digit {
		missing = append(missing, "a digit")
	}
	if !special {
		missing = append(missing, "a special character")
	}
	if len(missing) > 0 {
		return weakPassword("password must contain %s", strings.Join(missing, ", "))
	}

	if sequentialRun.MatchString(password) {
		return weakPassword("password cannot contain sequential letters or digits")
	}

	folded := strings.ToLower(password)
	for _, common := range commonPasswords {
		if strings.Contains(folded, common) {
			return weakPassword("password is too common")
		}
	}

	return nil
}

func weakPassword(format string, args ...interface{}) error {
	return apperr.New(apperr.KindInvalidInput, "user", format, args...)
}
