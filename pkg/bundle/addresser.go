// Package bundle installs, resolves and opens immutable, versioned,
// content-addressed bundles of contexts.
package bundle

import (
	"encoding/hex"

	blake2b "github.com/minio/blake2b-simd"
)

const hashSize = 32

// HashContent returns the content address of a serialized payload: the
// hex-encoded blake2b digest of its bytes. Identical payloads always map
// to the same address, which is what makes on-disk dedup work.
func HashContent(data []byte) (string, error) {
	hasher, err := blake2b.New(&blake2b.Config{Size: hashSize})
	if err != nil {
		return "", err
	}
	if _, err := hasher.Write(data); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
