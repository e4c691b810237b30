package constitution

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gowebpki/jcs"
)

// HashLength is the length of a constitutional hash in hex characters.
// The fingerprint is the first 8 bytes of the SHA-256 digest, hex-encoded
// (e.g., "cdd01ef066bc6cf2").
const HashLength = 16

// ComputeHash computes the constitutional hash over a slice of principles.
//
// The principles are serialized to JSON, canonicalized per RFC 8785 (JCS) so
// that the digest is independent of map ordering and encoder quirks, and
// digested with SHA-256. Identical sets always produce identical hashes;
// any change to the active set changes the hash.
//
// Sorting is part of canonicalization: hashing the same principles in a
// different order must not change the fingerprint, so ComputeHash always
// sorts a copy by id before serializing.
func ComputeHash(principles []Principle) (string, error) {
	sorted := append([]Principle(nil), principles...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	serialized, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("failed to serialize principles: %w", err)
	}

	canonical, err := jcs.Transform(serialized)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize principles: %w", err)
	}

	digest := sha256.Sum256(canonical)
	return hex.EncodeToString(digest[:HashLength/2]), nil
}

// ValidHash reports whether s has the shape of a constitutional hash.
func ValidHash(s string) bool {
	if len(s) != HashLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
