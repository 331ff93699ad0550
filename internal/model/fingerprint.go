package model

import (
	"crypto/sha256"
	"fmt"

	"github.com/sievemod/sieve/internal/common"
)

// Fingerprint computes a stable content hash for dedup and audit.
// Identical content always produces the same fingerprint regardless of
// which provider later classifies it. Empty content is rejected.
func Fingerprint(content []byte) (string, error) {
	if len(content) == 0 {
		return "", common.ErrEmptyContent
	}
	hash := sha256.Sum256(content)
	return fmt.Sprintf("%x", hash), nil
}
