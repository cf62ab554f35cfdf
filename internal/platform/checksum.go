package platform

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// ChecksumPrefix tags every checksum with its algorithm.
const ChecksumPrefix = "sha256:"

// Checksum returns the checksum of data in "sha256:<hex>" form.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return ChecksumPrefix + hex.EncodeToString(sum[:])
}

// FileChecksum returns the checksum of the file at path.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return ChecksumPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
