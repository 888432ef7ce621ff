package util

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFilenameRe = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// IsAllowedFile reports whether filename carries one of the allowed
// extensions (case-insensitive). With no allowed extensions given only
// "csv" is accepted.
func IsAllowedFile(filename string, allowed ...string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return false
	}
	if len(allowed) == 0 {
		allowed = []string{"csv"}
	}

	ext := strings.ToLower(filename[idx+1:])
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// FileExtension returns the lowercased text after the last dot, or "" when
// there is none
func FileExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// SecureFilename reduces a client supplied filename to something safe to
// join onto a local directory: ASCII only, no path separators, whitespace
// collapsed to underscores and leading/trailing dots and underscores removed.
// The result may be empty.
func SecureFilename(filename string) string {
	filename = ToASCII(filename)
	for _, sep := range []string{"/", "\\", string(filepath.Separator)} {
		filename = strings.ReplaceAll(filename, sep, " ")
	}
	filename = strings.Join(strings.Fields(filename), "_")
	filename = unsafeFilenameRe.ReplaceAllString(filename, "")
	return strings.Trim(filename, "._")
}

// ChecksumFile returns the hex encoded MD5 digest of the file at path
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, 4096)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
