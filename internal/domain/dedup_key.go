package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DedupKey identifies a comment for deduplication purposes. Two comments
// with the same key are the same comment as far as the run is concerned.
type DedupKey string

// NewDedupKey derives a stable deduplication key from the comment's file,
// its resolved anchor position, and a normalized hash of the body.
//
// The body is NFC-normalized and whitespace-trimmed before hashing so that
// cosmetic differences between model calls (trailing newlines, composed vs
// decomposed Unicode) do not defeat deduplication.
func NewDedupKey(path string, position int, body string) DedupKey {
	normalized := norm.NFC.String(strings.TrimSpace(body))
	payload := fmt.Sprintf("%s|%d|%s", path, position, normalized)
	sum := sha256.Sum256([]byte(payload))
	return DedupKey(hex.EncodeToString(sum[:]))
}
