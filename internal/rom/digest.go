package rom

import (
	"crypto/sha1"
	"encoding/hex"
)

// DigestLength is the number of hex characters in a digest.
const DigestLength = sha1.Size * 2

// Digest returns the lowercase hex SHA-1 of data. Empty input is valid.
func Digest(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
