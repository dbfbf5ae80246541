package service

import (
	"crypto/rand"
	"fmt"
)

// Referral codes are short, upper-case, and unambiguous enough to be read
// over the phone. Uniqueness is enforced by the accounts table; callers
// regenerate on collision.
const referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReferralCode returns a random code of the given length.
func GenerateReferralCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid referral code length %d", length)
	}
	// Bytes at or above the largest multiple of the charset size are
	// discarded; mapping them through modulo would skew the first
	// few characters of the charset.
	limit := byte(256 - 256%len(referralCodeCharset))
	code := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(code) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, referralCodeCharset[int(b)%len(referralCodeCharset)])
			if len(code) == length {
				break
			}
		}
	}
	return string(code), nil
}
