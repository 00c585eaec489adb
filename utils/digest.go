package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// DigestLength is the length of a hex encoded SHA-256 digest.
const DigestLength = sha256.Size * 2

// DigestString returns the lowercase hex SHA-256 of s.
func DigestString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// UserIDDigest hashes the decimal representation of a user identifier.
func UserIDDigest(userID int64) string {
	return DigestString(strconv.FormatInt(userID, 10))
}

// IsDigest reports whether s already looks like an output of DigestString.
func IsDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
