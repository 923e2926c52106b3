// Package util provides hashing helpers shared across the service.
package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// hashBufferSize is the read block size for streaming digests. Files are
// never loaded into memory whole.
const hashBufferSize = 1 << 20

// FileSHA256 computes the hex SHA-256 digest of a file's full byte
// content using fixed-size buffered reads.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	digest := sha256.New()
	buf := make([]byte, hashBufferSize)
	if _, err := io.CopyBuffer(digest, f, buf); err != nil {
		return "", fmt.Errorf("failed to hash file %s: %w", path, err)
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

// FileFingerprint returns a cheap identity proxy for a file built from
// its size and modification time. Matching fingerprints let the cache
// skip rehashing unchanged files; they are never a substitute for the
// content hash itself.
func FileFingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	return fmt.Sprintf("%d:%d", info.Size(), info.ModTime().UnixNano()), nil
}

// SHA256Hex computes the hex SHA-256 digest of a byte slice.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
