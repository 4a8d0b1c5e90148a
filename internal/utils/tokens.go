package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

func NewResetToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 бит по умолчанию
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken is what gets persisted instead of the raw reset token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewReferralCode returns an 8-character uppercase code.
func NewReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// VerificationHash derives the email-verification proof from the account's
// immutable fields. Nothing is stored: the link stays valid only while
// id/email/created_at are unchanged. createdAt is normalized to UTC so the
// digest survives driver time-zone round-trips.
func VerificationHash(secret, id, email string, createdAt time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	mac.Write([]byte("|"))
	mac.Write([]byte(email))
	mac.Write([]byte("|"))
	mac.Write([]byte(createdAt.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(mac.Sum(nil))
}

// HashEqual compares two hex digests in constant time.
func HashEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
