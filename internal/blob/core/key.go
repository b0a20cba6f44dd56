package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"slices"
	"strings"
)

// CleanKey returns key in canonical slash form. Backslashes count as
// separators. Empty keys, absolute keys and any ".." segment are rejected.
func CleanKey(key string) (string, error) {
	k := strings.ReplaceAll(strings.TrimSpace(key), `\`, "/")
	switch {
	case k == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	case strings.HasPrefix(k, "/"):
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidKey, key)
	case slices.Contains(strings.Split(k, "/"), ".."):
		return "", fmt.Errorf("%w: %q leaves the store root", ErrInvalidKey, key)
	}
	k = path.Clean(k)
	if k == "." {
		return "", fmt.Errorf("%w: %q names the root", ErrInvalidKey, key)
	}
	return k, nil
}

// Digest is the hex SHA-256 of data, used as the ETag by the local drivers.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SortByKey orders infos by key in place and returns them.
func SortByKey(infos []Info) []Info {
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Key, b.Key) })
	return infos
}
