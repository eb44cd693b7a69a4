package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
)

// SumSHA256 returns the SHA-256 checksum of the provided data.
func SumSHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ContentKey builds a storage key from the content hash, so re-uploading the
// same photo lands on the same object.
func ContentKey(prefix string, data []byte, ext string) string {
	sum := SumSHA256(data)
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	name := hex.EncodeToString(sum[:])
	if ext != "" {
		name += "." + ext
	}
	return path.Join(prefix, name[:2], name)
}
