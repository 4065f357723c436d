package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loopreel/loopreel/internal/config"
	"github.com/loopreel/loopreel/internal/history"
	"github.com/loopreel/loopreel/internal/mediaqueue"
	"github.com/loopreel/loopreel/internal/transcoder"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	tempDir := t.TempDir()
	queue := mediaqueue.New(nil, nil, config.AudioConfig{}, config.PerformanceConfig{}, 0, tempDir, 5)
	hist := history.New(tempDir, 5, 50)
	s := New(nil, queue, hist, nil, nil, nil, tempDir)
	return s, tempDir
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	r := NewRouter(s, nil, "", 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestHandleQueueStatusEmptyQueue(t *testing.T) {
	s, _ := newTestServer(t)
	r := NewRouter(s, nil, "", 0)

	req := httptest.NewRequest(http.MethodGet, "/api/queue-status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp queueStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.PreprocessedQueue.Current)
	require.Equal(t, 5, resp.PreprocessedQueue.Target)
}

func TestHandleNextVideoEmptyQueueReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	r := NewRouter(s, nil, "", 0)

	req := httptest.NewRequest(http.MethodGet, "/api/next-video", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePreviousVideoEmptyHistoryReturnsNull(t *testing.T) {
	s, _ := newTestServer(t)
	r := NewRouter(s, nil, "", 0)

	req := httptest.NewRequest(http.MethodGet, "/api/previous-video", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "null", bytesTrimSpace(rec.Body.Bytes()))
}

func TestHandleVideoErrorIncrementsCounter(t *testing.T) {
	s, _ := newTestServer(t)
	r := NewRouter(s, nil, "", 0)

	body, _ := json.Marshal(map[string]string{"errorMessage": "boom"})
	req := httptest.NewRequest(http.MethodPost, "/api/video-error", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1), s.stats.errorCount.Load())
}

func TestHandleVideoSkippedManualIncrementsCounter(t *testing.T) {
	s, _ := newTestServer(t)
	r := NewRouter(s, nil, "", 0)

	req := httptest.NewRequest(http.MethodPost, "/api/video-skipped-manual", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1), s.stats.sessionSkipCount.Load())
}

func TestHandleAddToHistoryStoresEntry(t *testing.T) {
	s, tempDir := newTestServer(t)
	r := NewRouter(s, nil, "", 0)

	original := filepath.Join(tempDir, "original.mp4")
	require.NoError(t, os.WriteFile(original, []byte("x"), 0o644))

	artifact := transcoder.ProcessedArtifact{}
	artifact.OriginalPath = original
	body, _ := json.Marshal(artifact)

	req := httptest.NewRequest(http.MethodPost, "/api/add-to-history", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, s.History.Playback(), 1)
}

func TestHandleEnsureVideoProcessedMissingOriginalReturnsNull(t *testing.T) {
	s, _ := newTestServer(t)
	r := NewRouter(s, nil, "", 0)

	artifact := transcoder.ProcessedArtifact{}
	artifact.OriginalPath = "/does/not/exist.mp4"
	body, _ := json.Marshal(artifact)

	req := httptest.NewRequest(http.MethodPost, "/api/ensure-video-processed", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "null", bytesTrimSpace(rec.Body.Bytes()))
}

func TestServeVideoRejectsPathTraversal(t *testing.T) {
	s, _ := newTestServer(t)
	r := NewRouter(s, nil, "", 0)

	req := httptest.NewRequest(http.MethodGet, "/videos?filename=..%2Fetc%2Fpasswd", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServeVideoServesFileWithRangeSupport(t *testing.T) {
	s, tempDir := newTestServer(t)
	r := NewRouter(s, nil, "", 0)

	content := []byte("0123456789")
	path := filepath.Join(tempDir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	req := httptest.NewRequest(http.MethodGet, "/videos?filename=clip.mp4", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "2345", rec.Body.String())
}

func bytesTrimSpace(b []byte) string {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == ' ') {
		b = b[:len(b)-1]
	}
	return string(b)
}
