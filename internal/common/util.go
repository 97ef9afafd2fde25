package common

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
)

// GenerateLoginCode returns a uniformly distributed six digit code in the
// range 100000..999999 drawn from crypto/rand.
func GenerateLoginCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(loginCodeMax-loginCodeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+loginCodeMin, 10), nil
}

// IsLoginCode reports whether s has the shape of a login code.
func IsLoginCode(s string) bool {
	if len(s) != LoginCodeLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeEmail trims and lower-cases an email address. Users are keyed by
// the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
