// Package contenthash provides a deterministic digest over block content,
// used to detect drift between ingestion and patch time.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Sum returns the hex-encoded SHA-256 of the normalized content.
//
// Normalization rules:
//   - nil content hashes as an empty byte sequence
//   - string content hashes as its raw UTF-8 bytes
//   - structured content is canonicalized to JSON first; encoding/json
//     already emits map keys in sorted order with fixed separators, so
//     identical content yields the identical digest regardless of the
//     in-memory key order it was produced in.
func Sum(content any) (string, error) {
	var raw []byte
	switch c := content.(type) {
	case nil:
		raw = []byte{}
	case string:
		raw = []byte(c)
	case []byte:
		raw = c
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return "", fmt.Errorf("canonicalize content: %w", err)
		}
		raw = b
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
