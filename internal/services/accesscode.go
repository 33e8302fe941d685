package services

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Access codes are what guests present at the door. The alphabet drops
// 0/O and 1/I so codes survive being read aloud or typed from print.
const (
	accessCodeAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	accessCodeLength     = 12
	accessCodeGroupSize  = 4
	accessCodeSeparator  = "-"
	accessCodeMaxRetries = 5
)

// GenerateAccessCode draws a fresh code from crypto/rand, grouped as
// XXXX-XXXX-XXXX. Uniqueness is enforced at insert time; callers retry
// on collision.
func GenerateAccessCode() (string, error) {
	b := make([]byte, accessCodeLength)
	max := big.NewInt(int64(len(accessCodeAlphabet)))
	for i := 0; i < accessCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = accessCodeAlphabet[n.Int64()]
	}
	var groups []string
	for i := 0; i < accessCodeLength; i += accessCodeGroupSize {
		groups = append(groups, string(b[i:i+accessCodeGroupSize]))
	}
	return strings.Join(groups, accessCodeSeparator), nil
}

// NormalizeAccessCode uppercases and strips whitespace so scans and
// hand-typed codes compare equal to the stored form.
func NormalizeAccessCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
