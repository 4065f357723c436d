package api

import (
	"context"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loopreel/loopreel/internal/broadcast"
	"github.com/loopreel/loopreel/internal/config"
	"github.com/loopreel/loopreel/internal/history"
	"github.com/loopreel/loopreel/internal/initctl"
	"github.com/loopreel/loopreel/internal/mediaqueue"
	"github.com/loopreel/loopreel/internal/metadata"
	"github.com/loopreel/loopreel/internal/statestore"
	"github.com/loopreel/loopreel/internal/transcoder"
	"github.com/loopreel/loopreel/internal/videoindex"
)

// sessionStats tracks the counters that reset every process lifetime
// (spec §3 Stats), separately from the persisted statestore.Stats that
// survive restarts.
type sessionStats struct {
	errorCount        atomic.Int64
	sessionSkipCount  atomic.Int64
	sessionReturnCount atomic.Int64
	videosPlayed      atomic.Int64

	mu              sync.RWMutex
	lastIndexUpdate time.Time
}

func (s *sessionStats) setLastIndexUpdate(t time.Time) {
	s.mu.Lock()
	s.lastIndexUpdate = t
	s.mu.Unlock()
}

func (s *sessionStats) snapshot(totalVideos, preprocessedCount int) statestore.Stats {
	s.mu.RLock()
	last := s.lastIndexUpdate
	s.mu.RUnlock()
	return statestore.Stats{
		TotalVideos:             totalVideos,
		PreprocessedCount:       preprocessedCount,
		ErrorCount:              int(s.errorCount.Load()),
		SessionSkipCount:        int(s.sessionSkipCount.Load()),
		SessionReturnCount:      int(s.sessionReturnCount.Load()),
		VideosPlayedThisSession: int(s.videosPlayed.Load()),
		LastIndexUpdate:         last,
	}
}

// Server wires every domain component into the HTTP surface. It holds a
// config snapshot it can be handed fresh copies of on reload
// (mirroring the teacher's Server.ApplySnapshot pattern).
type Server struct {
	Index   *videoindex.Index
	Queue   *mediaqueue.Queue
	History *history.Manager
	Store   statestore.Backend
	InitCtl *initctl.Controller
	Hub     *broadcast.Hub
	TempDir string

	cfgMu sync.RWMutex
	cfg   config.FileConfig

	stats sessionStats

	probe func(ctx context.Context, path string, timeout time.Duration) (*metadata.Metadata, error)
}

// New constructs a Server. probe defaults to metadata.Probe; tests can
// override it to avoid shelling out to ffprobe.
func New(index *videoindex.Index, queue *mediaqueue.Queue, hist *history.Manager, store statestore.Backend, ctl *initctl.Controller, hub *broadcast.Hub, tempDir string) *Server {
	return &Server{
		Index:   index,
		Queue:   queue,
		History: hist,
		Store:   store,
		InitCtl: ctl,
		Hub:     hub,
		TempDir: tempDir,
		probe:   metadata.Probe,
	}
}

// ApplySnapshot swaps in a freshly loaded/merged config, used on initial
// load and every hot-reload.
func (s *Server) ApplySnapshot(cfg config.FileConfig) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

func (s *Server) config() config.FileConfig {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

func (s *Server) audioConfig() config.AudioConfig {
	cfg := s.config()
	if cfg.Audio != nil {
		return *cfg.Audio
	}
	return config.AudioConfig{}
}

func (s *Server) performanceConfig() config.PerformanceConfig {
	cfg := s.config()
	if cfg.Performance != nil {
		return *cfg.Performance
	}
	return config.PerformanceConfig{}
}

func (s *Server) transcodeTimeout() time.Duration {
	cfg := s.config()
	if cfg.Timeouts != nil && cfg.Timeouts.Transcode != nil {
		return *cfg.Timeouts.Transcode
	}
	return 0
}

// StatsSnapshot reports the current session counters merged with live
// totals, for callers outside the api package that need it for
// persistence (statestore's periodic SaveState task).
func (s *Server) StatsSnapshot() statestore.Stats {
	total := 0
	if s.Index != nil {
		total = s.Index.Count()
	}
	preprocessed := 0
	if s.Queue != nil {
		preprocessed = s.Queue.Size()
	}
	return s.stats.snapshot(total, preprocessed)
}

// serverURLFor builds the /videos?filename= URL for a processed
// artifact, the decoration every endpoint returning a ProcessedArtifact
// must apply (spec §6).
func serverURLFor(processedPath string) string {
	if processedPath == "" {
		return ""
	}
	return "/videos?filename=" + url.QueryEscape(filepath.Base(processedPath))
}

// artifactResponse is a ProcessedArtifact decorated with its serverUrl
// by decorate, per spec §6's next-video/previous-video/ensure-processed
// contract.
type artifactResponse struct {
	transcoder.ProcessedArtifact
	ServerURL string `json:"serverUrl"`
}

func decorate(a transcoder.ProcessedArtifact) artifactResponse {
	return artifactResponse{ProcessedArtifact: a, ServerURL: serverURLFor(a.ProcessedPath)}
}
