package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPLength is the number of digits in a delivery confirmation code
const OTPLength = 4

var fourDigits = big.NewInt(10000)

// GenerateSecureOTP generates a uniformly distributed 4-digit code, 0000 to 9999
func GenerateSecureOTP() (string, error) {
	n, err := rand.Int(rand.Reader, fourDigits)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// GenerateErrandID builds PREFIX-YYYYMMDD-NNNN from the local date of day and a
// random discriminator. Uniqueness is checked by the caller against the log.
func GenerateErrandID(prefix string, day time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, fourDigits)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), n.Int64()), nil
}

// NormalizeOTP drops whitespace so "12 34" and " 1234 " compare equal to "1234".
// ok is false when anything other than digits remains.
func NormalizeOTP(code string) (string, bool) {
	out := make([]byte, 0, len(code))
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			continue
		case c >= '0' && c <= '9':
			out = append(out, c)
		default:
			return "", false
		}
	}
	return string(out), len(out) > 0
}
