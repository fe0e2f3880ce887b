package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Digest is a SHA-256 content hash.
type Digest [sha256.Size]byte

// String returns the lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest was never computed.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// HashFile streams the full content of path through SHA-256 and returns the
// digest together with the number of bytes read.
func HashFile(p string) (Digest, int64, error) {
	in, err := os.Open(p)
	if err != nil {
		return Digest{}, 0, err
	}
	defer in.Close()

	hasher := sha256.New()
	n, err := io.Copy(hasher, in)
	if err != nil {
		return Digest{}, 0, fmt.Errorf("hash %s: %w", p, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, n, nil
}

// Exists reports whether path names an existing filesystem entry.
func Exists(p string) (bool, error) {
	_, err := os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// IsRegular reports whether path exists and is a regular file.
func IsRegular(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// SplitExt splits a path into its stem and extension. Dots in
// directory names and leading dots of hidden files are not extensions.
func SplitExt(p string) (string, string) {
	ext := filepath.Ext(p)
	base := filepath.Base(p)
	if ext == base {
		return p, ""
	}
	return strings.TrimSuffix(p, ext), ext
}

// ReplaceExt swaps the extension of p for ext.
func ReplaceExt(p, ext string) string {
	stem, _ := SplitExt(p)
	return stem + ext
}

// InsertSuffix places suffix between the stem and the extension of p.
func InsertSuffix(p, suffix string) string {
	stem, ext := SplitExt(p)
	return stem + suffix + ext
}
