package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash is the hex SHA-256 digest of some content
type Hash string

// NewHash digests data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

func (h Hash) String() string {
	return string(h)
}

// Short returns the first eight characters, enough to tell asset versions apart
func (h Hash) Short() string {
	if len(h) < 8 {
		return string(h)
	}
	return string(h[:8])
}
