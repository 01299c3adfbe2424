package model

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"time"
)

// HashAlgorithm names the digest used for content hashing.
type HashAlgorithm string

const (
	// HashNone disables content hashing.
	HashNone HashAlgorithm = ""
	// HashXXH3 is the 128-bit xxh3 digest.
	HashXXH3 HashAlgorithm = "xxh3"
	// HashSHA256 is the SHA-256 digest.
	HashSHA256 HashAlgorithm = "sha256"
)

// ParseHashAlgorithm accepts "none", "xxh3", "sha256" (case-sensitive) and the
// empty string.
func ParseHashAlgorithm(value string) (HashAlgorithm, error) {
	switch value {
	case "", "none":
		return HashNone, nil
	case string(HashXXH3):
		return HashXXH3, nil
	case string(HashSHA256):
		return HashSHA256, nil
	}

	return HashNone, fmt.Errorf("unknown hash algorithm %q", value)
}

// Fingerprint is a comparable summary of one file's state.
type Fingerprint struct {
	Size      uint64
	ModTime   time.Time
	Hash      []byte
	Algorithm HashAlgorithm
}

// Equal reports whether two fingerprints describe the same file state.
// Size and modification time must match. When both sides carry a digest of the
// same algorithm the digests must match too.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.Size != other.Size || !f.ModTime.Equal(other.ModTime) {
		return false
	}

	if f.HasHash() && other.HasHash() && f.Algorithm == other.Algorithm {
		return bytes.Equal(f.Hash, other.Hash)
	}

	return true
}

// HasHash reports whether a content digest was captured.
func (f Fingerprint) HasHash() bool {
	return len(f.Hash) > 0
}

// HashString returns the digest in hex, or "" without one.
func (f Fingerprint) HashString() string {
	if !f.HasHash() {
		return ""
	}

	return hex.EncodeToString(f.Hash)
}

func (f Fingerprint) String() string {
	if f.HasHash() {
		return fmt.Sprintf("size=%d mtime=%s %s=%s", f.Size, f.ModTime.Format(time.RFC3339Nano), f.Algorithm, f.HashString())
	}

	return fmt.Sprintf("size=%d mtime=%s", f.Size, f.ModTime.Format(time.RFC3339Nano))
}
