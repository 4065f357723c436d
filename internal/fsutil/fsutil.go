// Package fsutil provides small filesystem helpers shared across
// components: existence checks, atomic JSON read/write, and video-file
// detection by extension or MIME class.
package fsutil

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Exists reports whether path exists and is a regular file (not a directory).
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ReadJSON decodes the JSON file at path into v. A missing file returns
// an error satisfying os.IsNotExist, which callers treat as "no prior
// state" per the spec's persistence error policy.
func ReadJSON(path string, v any) error {
	// #nosec G304 -- paths are operator-configured cache/data directories
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// WriteJSON atomically writes v as indented JSON to path: it writes to a
// temp file in the same directory and renames over the target, so a
// concurrent reader never observes a partially-written file.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// DefaultVideoExtensions are the extensions treated as video when no
// configuration override is given.
var DefaultVideoExtensions = []string{
	".mp4", ".mkv", ".avi", ".mov", ".webm", ".m4v", ".mpg", ".mpeg", ".wmv", ".flv",
}

// IsVideoFile reports whether name should be treated as a video file given
// the configured extension allowlist: a match on extension OR on the
// file's MIME class being "video/*" (checked via the extension-to-MIME
// table, since no file content sniffing is performed during a directory
// walk).
func IsVideoFile(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	if len(extensions) == 0 {
		extensions = DefaultVideoExtensions
	}
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	if mt := mime.TypeByExtension(ext); mt != "" && strings.HasPrefix(mt, "video/") {
		return true
	}
	return false
}
