package util

import (
	"crypto/sha1"
	"encoding/hex"
)

// GetIDFromString returns the hex sha1 of str.
func GetIDFromString(str *string) string {
	hasher := sha1.New()
	hasher.Write([]byte(*str))

	return hex.EncodeToString(hasher.Sum(nil))
}
