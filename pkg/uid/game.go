package uid

import (
	"encoding/hex"

	"lukechampine.com/frand"
)

// GenerateGameID returns 16 random bytes, hex encoded.
func GenerateGameID() string {
	return hex.EncodeToString(frand.Bytes(16))
}

// GenerateTokenID returns a shorter random id for token jti claims.
func GenerateTokenID() string {
	return hex.EncodeToString(frand.Bytes(8))
}
