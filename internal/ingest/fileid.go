package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
)

const fileIDPrefix = "file:"

// FileID returns a stable id for an absolute path. The same path always
// yields the same id.
func FileID(absolutePath string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return fileIDPrefix + hex.EncodeToString(sum[:])
}

// ChunkID is the vector id of the n-th chunk of a file.
func ChunkID(fileID string, n int) string {
	return fileID + "#" + strconv.Itoa(n)
}
