package videoindex

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/loopreel/loopreel/internal/fsutil"
	"github.com/loopreel/loopreel/internal/log"
)

const maxScanDepth = 32

// ScanDirectories walks every existing directory in dirs, collecting
// video files per the configured extension/MIME allowlist. Scan errors
// on one directory are logged and skipped — they never abort the whole
// scan (spec §4.2). Progress is emitted once per directory.
func ScanDirectories(ctx context.Context, dirs []string, extensions []string, onProgress func(ScanProgress)) []VideoEntry {
	logger := log.WithComponent("videoindex")
	var entries []VideoEntry

	for i, dir := range dirs {
		if ctx.Err() != nil {
			return entries
		}
		if !fsutil.DirExists(dir) {
			logger.Warn().Str("directory", dir).Msg("configured directory does not exist, skipping")
			if onProgress != nil {
				onProgress(ScanProgress{Percent: percentOf(i+1, len(dirs)), Message: "skipped missing directory " + dir})
			}
			continue
		}
		found, err := scanOne(ctx, dir, extensions)
		if err != nil {
			logger.Error().Err(err).Str("directory", dir).Msg("directory scan failed, continuing with remaining directories")
		}
		entries = append(entries, found...)
		if onProgress != nil {
			onProgress(ScanProgress{Percent: percentOf(i+1, len(dirs)), Message: "scanned " + dir})
		}
	}
	return entries
}

// ScanSeasonal walks each seasonal directory independently, tagging
// every result with its originating seasonal directory key.
func ScanSeasonal(ctx context.Context, seasonalDirs []string, extensions []string, onProgress func(ScanProgress)) map[string][]VideoEntry {
	logger := log.WithComponent("videoindex")
	out := make(map[string][]VideoEntry, len(seasonalDirs))

	for i, dir := range seasonalDirs {
		if ctx.Err() != nil {
			return out
		}
		if !fsutil.DirExists(dir) {
			logger.Warn().Str("directory", dir).Msg("configured seasonal directory does not exist, skipping")
			continue
		}
		found, err := scanOne(ctx, dir, extensions)
		if err != nil {
			logger.Error().Err(err).Str("directory", dir).Msg("seasonal directory scan failed, continuing")
		}
		for i := range found {
			found[i].SeasonalDirectory = dir
		}
		out[dir] = found
		if onProgress != nil {
			onProgress(ScanProgress{Percent: percentOf(i+1, len(seasonalDirs)), Message: "scanned seasonal " + dir})
		}
	}
	return out
}

func scanOne(ctx context.Context, root string, extensions []string) ([]VideoEntry, error) {
	var entries []VideoEntry
	now := nowFunc()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// Per-entry error (e.g. permission denied): skip it, keep walking.
			log.WithComponent("videoindex").Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if depthOf(root, path) > maxScanDepth {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if isSymlink(path) {
				if _, err := fsutil.ResolveWithin(root, path); err != nil {
					return fs.SkipDir
				}
			}
			return nil
		}
		if isSymlink(path) {
			if _, err := fsutil.ResolveWithin(root, path); err != nil {
				return nil
			}
		}
		if !fsutil.IsVideoFile(d.Name(), extensions) {
			return nil
		}
		entries = append(entries, VideoEntry{
			OriginalPath: path,
			Filename:     d.Name(),
			Directory:    root,
			AddedAt:      now,
		})
		return nil
	})
	return entries, err
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	depth := 0
	for _, r := range rel {
		if r == filepath.Separator {
			depth++
		}
	}
	return depth
}

func percentOf(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}
