package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password using bcrypt with DefaultCost.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword compares a bcrypt hash with a candidate plaintext password.
func CheckPassword(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}

const (
	RuleMinLength = "Lösenordet måste vara minst 8 tecken långt"
	RuleUpper     = "Lösenordet måste innehålla minst en versal"
	RuleLower     = "Lösenordet måste innehålla minst en gemen"
	RuleDigit     = "Lösenordet måste innehålla minst en siffra"
	RuleCommon    = "Lösenordet är för vanligt, välj ett annat"
)

var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range []string{
		"password", "password1", "password123", "passw0rd", "12345678", "123456789",
		"1234567890", "qwerty", "qwerty123", "qwertyuiop", "abc12345", "abcd1234",
		"iloveyou", "welcome1", "welcome123", "letmein1", "admin123", "sommar2024",
		"sommar2025", "vinter2024", "lösenord", "lösenord1", "losenord1", "hejsan123",
		"monkey123", "football1", "dragon123", "sunshine1", "princess1", "trustno1",
	} {
		commonPasswords[p] = struct{}{}
	}
}

// ValidatePassword returns every rule pw violates. An empty result means
// the password is accepted.
func ValidatePassword(pw string) []string {
	violations := []string{}
	if utf8.RuneCountInString(pw) < 8 {
		violations = append(violations, RuleMinLength)
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		violations = append(violations, RuleUpper)
	}
	if !lower {
		violations = append(violations, RuleLower)
	}
	if !digit {
		violations = append(violations, RuleDigit)
	}
	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		violations = append(violations, RuleCommon)
	}
	return violations
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail is the basic local@domain.tld check used by every form.
func ValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// NewOpaqueToken returns a random token for email links.
func NewOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken is the form opaque tokens are stored in.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
