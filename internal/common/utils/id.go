// Package utils provides small helpers shared across the bridge: random
// identifiers, reconnect backoff and gateway timestamp handling.
package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandomID generates a cryptographically secure random hex ID.
//
// For odd lengths, the result will be 1 character shorter due to hex encoding.
// Each byte generates 2 hex characters, so length/2 bytes are generated.
func GenerateRandomID(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
