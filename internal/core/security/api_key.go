package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyPrefix starts every API key so leaked keys are easy to spot.
const KeyPrefix = "sk_live_"

// displayPrefixLen is how much of a key is kept in clear for support lookups.
const displayPrefixLen = len(KeyPrefix) + 6

// APIKey is a freshly issued key. Plain is shown to the user once; only Hash
// and Prefix are stored.
type APIKey struct {
	Plain  string
	Hash   string
	Prefix string
}

// GenerateAPIKey creates a random key and its SHA256 hash.
//
// Example:
//
//	key, err := GenerateAPIKey()
//	// key.Plain  = "sk_live_3f9a..."
//	// key.Hash   = "b94d27b9934d3e08..."
func GenerateAPIKey() (APIKey, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return APIKey{}, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	plain := KeyPrefix + hex.EncodeToString(bytes)
	return APIKey{
		Plain:  plain,
		Hash:   HashKey(plain),
		Prefix: plain[:displayPrefixLen],
	}, nil
}

// HashKey is the stored form of a key.
func HashKey(plain string) string {
	hash := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(hash[:])
}

// LooksLikeKey rejects obviously malformed bearer tokens before a lookup.
func LooksLikeKey(s string) bool {
	return strings.HasPrefix(s, KeyPrefix) && len(s) == len(KeyPrefix)+64
}
