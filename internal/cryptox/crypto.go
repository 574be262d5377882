package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// MakeVerifier returns the SHA-256 digest of a derived master key. The
// server stores only this digest, never the key or password it was derived
// from, so a compromised server database gives an attacker nothing to
// offline-crack the password with.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey derives a fixed-size key from a password and salt using
// Argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	x := argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
	return x
}
