// Package digest provides content hashing used to detect unchanged pages.
package digest

import (
	"crypto/sha1" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrHashMismatch is returned by Verify when content does not match its hash.
var ErrHashMismatch = errors.New("hash mismatch")

// SHA1 returns the lowercase hex SHA-1 of content.
func SHA1(content []byte) string {
	sum := sha1.Sum(content) //nolint:gosec

	return hex.EncodeToString(sum[:])
}

// Verify checks that content hashes to expected.
func Verify(content []byte, expected string) error {
	calculated := SHA1(content)
	if !strings.EqualFold(calculated, strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, expected, calculated)
	}

	return nil
}
