// Package fingerprint derives the digests used to keep mirrored copies in
// step with the record store.
package fingerprint

import (
	"crypto/sha512"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Size is the length of a content fingerprint in hex characters.
const Size = sha512.Size * 2

// Sum returns the hex SHA-512 of content. This is the value persisted in the
// content_hash column, so it must stay stable across releases.
func Sum(content []byte) string {
	h := sha512.Sum512(content)
	return hex.EncodeToString(h[:])
}

// NameKey maps a file name to a fixed-length, filesystem-safe key used to
// address the sidecar that records a mirrored copy's fingerprint.
func NameKey(name string) string {
	h := blake2b.Sum256([]byte(name))
	return hex.EncodeToString(h[:])
}
