package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loopreel/loopreel/internal/history"
	"github.com/loopreel/loopreel/internal/initctl"
	"github.com/loopreel/loopreel/internal/log"
	"github.com/loopreel/loopreel/internal/reprocess"
	"github.com/loopreel/loopreel/internal/statestore"
	"github.com/loopreel/loopreel/internal/transcoder"
)

func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Get("/api/config", s.handleGetConfig)
	r.Get("/api/initialization-status", s.handleInitializationStatus)
	r.Get("/api/queue-status", s.handleQueueStatus)
	r.Get("/api/detailed-stats", s.handleDetailedStats)
	r.Get("/api/next-video", s.handleNextVideo)
	r.Get("/api/previous-video", s.handlePreviousVideo)
	r.Post("/api/video-ended", s.handleAddToHistory)
	r.Post("/api/add-to-history", s.handleAddToHistory)
	r.Post("/api/video-error", s.handleVideoError)
	r.Post("/api/video-skipped-manual", s.handleVideoSkippedManual)
	r.Post("/api/video-returned-to-previous", s.handleVideoReturnedToPrevious)
	r.Post("/api/ensure-video-processed", s.handleEnsureVideoProcessed)
	r.Get("/videos", s.handleServeVideo)
	r.Handle("/metrics", promhttp.Handler())
	if s.Hub != nil {
		r.Get("/", s.Hub.ServeHTTP)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config())
}

func (s *Server) handleInitializationStatus(w http.ResponseWriter, r *http.Request) {
	if s.InitCtl == nil {
		writeError(w, http.StatusServiceUnavailable, "initialization controller not wired")
		return
	}
	writeJSON(w, http.StatusOK, s.InitCtl.Status())
}

// queueStatusResponse matches spec §6's /api/queue-status shape.
type queueStatusResponse struct {
	PreprocessedQueue struct {
		Current int `json:"current"`
		Target  int `json:"target"`
	} `json:"preprocessedQueue"`
	IsPreprocessing     bool           `json:"isPreprocessing"`
	TotalVideos         int            `json:"totalVideos"`
	InitializationState initctl.Update `json:"initializationState"`
}

func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	var resp queueStatusResponse
	if s.Queue != nil {
		resp.PreprocessedQueue.Current = s.Queue.Size()
		resp.PreprocessedQueue.Target = s.Queue.Target()
		resp.IsPreprocessing = s.Queue.IsProcessing()
	}
	if s.Index != nil {
		resp.TotalVideos = s.Index.Count()
	}
	if s.InitCtl != nil {
		resp.InitializationState = string(s.InitCtl.CurrentStage())
	}
	writeJSON(w, http.StatusOK, resp)
}

// detailedStatsResponse extends statestore.Stats with history counts
// (spec §6). handleDetailedStats does not set NextIndexUpdateAt, so it
// is always serialized as the zero time.
type detailedStatsResponse struct {
	statestore.Stats
	PlaybackHistoryCount  int       `json:"playbackHistoryCount"`
	PersistedHistoryCount int       `json:"persistedHistoryCount"`
	NextIndexUpdateAt     time.Time `json:"nextIndexUpdateAt,omitempty"`
}

func (s *Server) handleDetailedStats(w http.ResponseWriter, r *http.Request) {
	total := 0
	if s.Index != nil {
		total = s.Index.Count()
	}
	preprocessed := 0
	if s.Queue != nil {
		preprocessed = s.Queue.Size()
	}
	resp := detailedStatsResponse{Stats: s.stats.snapshot(total, preprocessed)}
	if s.History != nil {
		resp.PlaybackHistoryCount = len(s.History.Playback())
		resp.PersistedHistoryCount = len(s.History.Persisted())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNextVideo(w http.ResponseWriter, r *http.Request) {
	if s.Queue == nil {
		writeError(w, http.StatusServiceUnavailable, "queue not ready")
		return
	}
	artifact, ok := s.Queue.GetNext()
	if !ok {
		log.WithComponentFromContext(r.Context(), "api").Warn().Msg("no playable video available, triggering refill")
		go s.Queue.Fill(context.Background(), nil)
		writeError(w, http.StatusNotFound, "no video available")
		return
	}
	s.stats.videosPlayed.Add(1)
	writeJSON(w, http.StatusOK, decorate(*artifact))
}

func (s *Server) handlePreviousVideo(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	entry, ok := s.History.GetPreviousVideo()
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, decorate(entry.ProcessedArtifact))
}

func (s *Server) handleAddToHistory(w http.ResponseWriter, r *http.Request) {
	var artifact transcoder.ProcessedArtifact
	if err := json.NewDecoder(r.Body).Decode(&artifact); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.History != nil {
		s.History.AddToHistory(history.Entry{ProcessedArtifact: artifact})
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleVideoError(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ErrorMessage string `json:"errorMessage"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.stats.errorCount.Add(1)
	log.WithComponentFromContext(r.Context(), "api").Warn().Str("errorMessage", body.ErrorMessage).Msg("client reported video error")
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleVideoSkippedManual(w http.ResponseWriter, r *http.Request) {
	s.stats.sessionSkipCount.Add(1)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleVideoReturnedToPrevious(w http.ResponseWriter, r *http.Request) {
	s.stats.sessionReturnCount.Add(1)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleEnsureVideoProcessed(w http.ResponseWriter, r *http.Request) {
	var artifact transcoder.ProcessedArtifact
	if err := json.NewDecoder(r.Body).Decode(&artifact); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ensured, err := reprocess.Ensure(r.Context(), artifact, s.audioConfig(), s.performanceConfig(), s.transcodeTimeout(), s.TempDir, s.probe)
	if err != nil {
		log.WithComponentFromContext(r.Context(), "api").Warn().Err(err).Msg("ensure-video-processed failed")
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, decorate(ensured))
}
