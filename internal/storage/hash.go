package storage

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes computes SHA256 hash of byte slice
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
