package fsutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolveWithin resolves candidate's symlinks and verifies the real path
// is still contained within root's real path. It returns the resolved
// absolute path on success, rejecting any symlink escape attempt — used
// both by the directory scanner (don't follow a symlink out of a
// configured library directory) and the file server (don't serve a path
// outside the temp directory).
func ResolveWithin(root, candidate string) (string, error) {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", root, err)
	}
	realCandidate, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", candidate, err)
	}
	rel, err := filepath.Rel(realRoot, realCandidate)
	if err != nil {
		return "", fmt.Errorf("relativize %s to %s: %w", realCandidate, realRoot, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes root %s", candidate, root)
	}
	return realCandidate, nil
}
