package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/loopreel/loopreel/internal/fsutil"
	"github.com/loopreel/loopreel/internal/log"
)

// handleServeVideo serves a processed artifact from the temp directory by
// basename (spec §6's /videos?filename= endpoint), range-capable via
// http.ServeContent and permissive on CORS since it's consumed directly
// by the <video> element.
func (s *Server) handleServeVideo(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	filename := r.URL.Query().Get("filename")
	if filename == "" || strings.ContainsAny(filename, "/\\") || filename != filepath.Base(filename) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	candidate := filepath.Join(s.TempDir, filename)
	realPath, err := fsutil.ResolveWithin(s.TempDir, candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		logger.Warn().Err(err).Str("filename", filename).Msg("rejected video file request")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	f, err := os.Open(realPath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Str("path", realPath).Msg("could not open video file")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logger.Error().Err(err).Str("path", realPath).Msg("could not stat video file")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if info.IsDir() {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
