package password

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tokonova/tokonova/application/port/outbound"
)

const (
	// DefaultCost is the bcrypt work factor used when none is configured.
	DefaultCost = 12

	minLength       = 8
	bonusLength     = 12
	generatedLength = 12
)

// Small local deny-list of known-weak passwords. Checked case-insensitively;
// breach-database lookups are an external collaborator concern.
var weakPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"qwerty123":   {},
	"letmein1":    {},
	"admin123":    {},
	"iloveyou":    {},
	"welcome1":    {},
	"abc12345":    {},
}

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*(),.?\":{}|<>"
)

type BcryptPasswordService struct {
	cost int
}

func NewBcryptPasswordService(cost int) *BcryptPasswordService {
	if cost == 0 {
		cost = DefaultCost
	}
	return &BcryptPasswordService{
		cost: cost,
	}
}

func (s *BcryptPasswordService) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedPassword), nil
}

// Verify is fail-closed: a mismatch, an empty input and a corrupted hash all
// return false. bcrypt's comparison is constant-time.
func (s *BcryptPasswordService) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *BcryptPasswordService) Score(password string) outbound.PasswordStrength {
	result := outbound.PasswordStrength{Violations: []string{}}

	if len(password) < minLength {
		result.Violations = append(result.Violations, fmt.Sprintf("must be at least %d characters", minLength))
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case strings.ContainsRune(lowerChars, c):
			hasLower = true
		case strings.ContainsRune(upperChars, c):
			hasUpper = true
		case strings.ContainsRune(digitChars, c):
			hasDigit = true
		case strings.ContainsRune(specialChars, c):
			hasSpecial = true
		}
	}

	classes := []struct {
		present   bool
		violation string
	}{
		{hasLower, "must contain a lowercase letter"},
		{hasUpper, "must contain an uppercase letter"},
		{hasDigit, "must contain a digit"},
		{hasSpecial, "must contain a special character"},
	}
	for _, class := range classes {
		if class.present {
			result.Score += 20
		} else {
			result.Violations = append(result.Violations, class.violation)
		}
	}

	if len(password) >= bonusLength {
		result.Score += 20
	}

	if _, weak := weakPasswords[strings.ToLower(password)]; weak {
		result.Violations = append(result.Violations, "password is too common")
	}

	result.Valid = len(result.Violations) == 0
	return result
}

// Generate produces a random password containing at least one character from
// each required class. Rejection sampling keeps the character distribution
// uniform instead of forcing classes positionally.
func (s *BcryptPasswordService) Generate(length int) (string, error) {
	if length < minLength {
		length = generatedLength
	}

	charset := lowerChars + upperChars + digitChars + specialChars
	max := big.NewInt(int64(len(charset)))

	for {
		chars := make([]byte, length)
		for i := range chars {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("failed to generate password: %w", err)
			}
			chars[i] = charset[n.Int64()]
		}

		candidate := string(chars)
		if s.Score(candidate).Valid {
			return candidate, nil
		}
	}
}
