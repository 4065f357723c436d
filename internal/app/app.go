// Package app wires every domain component into a runnable process
// lifecycle (config watch, hot-reload, periodic schedulers, the
// initialization sequence, and the HTTP server), grounded on the
// teacher's internal/daemon.App.Run orchestration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loopreel/loopreel/internal/api"
	"github.com/loopreel/loopreel/internal/broadcast"
	"github.com/loopreel/loopreel/internal/config"
	"github.com/loopreel/loopreel/internal/history"
	"github.com/loopreel/loopreel/internal/initctl"
	"github.com/loopreel/loopreel/internal/log"
	"github.com/loopreel/loopreel/internal/mediaqueue"
	"github.com/loopreel/loopreel/internal/metrics"
	"github.com/loopreel/loopreel/internal/scheduler"
	"github.com/loopreel/loopreel/internal/statestore"
	"github.com/loopreel/loopreel/internal/videoindex"
)

// Options configures the composed App; CacheDir/TempDir/StateBackend
// have no config-file equivalent and are supplied by the entrypoint.
type Options struct {
	CacheDir     string
	TempDir      string
	StateBackend string // "json" (default) or "sqlite"
}

// App owns every long-lived subsystem and the main HTTP listener.
type App struct {
	cfgHolder *config.Holder
	opts      Options

	index   *videoindex.Index
	history *history.Manager
	store   statestore.Backend
	queue   *mediaqueue.Queue
	hub     *broadcast.Hub
	initCtl *initctl.Controller
	server  *api.Server
	sched   *scheduler.Scheduler

	queueMonitorInterval         time.Duration
	queueCriticalMonitorInterval time.Duration

	httpServer *http.Server
}

// New constructs every component and loads whatever on-disk state is
// available, but does not yet start the initialization sequence or the
// HTTP listener — call Run for that.
func New(cfgHolder *config.Holder, opts Options) (*App, error) {
	snap := cfgHolder.Current()
	cfg := snap.Config

	store, err := statestore.Open(opts.StateBackend, opts.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	idx := videoindex.New(opts.CacheDir)
	if err := idx.LoadFromDisk(); err != nil {
		log.WithComponent("app").Warn().Err(err).Msg("failed to load index from disk, will rebuild")
	}

	hist := history.New(opts.CacheDir, *cfg.Video.PlaybackHistorySize, *cfg.Video.PersistedHistorySize)
	if err := hist.LoadPersisted(); err != nil {
		log.WithComponent("app").Warn().Err(err).Msg("failed to load persisted history")
	}

	queue := mediaqueue.New(idx, cfg.SeasonalDirectories, *cfg.Audio, *cfg.Performance, *cfg.Timeouts.Transcode, opts.TempDir, *cfg.Video.PreprocessedQueueSize)

	if snapshot, found, err := store.Load(); err != nil {
		log.WithComponent("app").Warn().Err(err).Msg("failed to load persisted state")
	} else if found {
		if restored, ok := statestore.Restore(snapshot, snap.Hash); ok {
			queue.Seed(restored.Queue)
			hist.SeedPlayback(restored.PlaybackHistory)
		} else {
			log.WithComponent("app").Info().Msg("config changed since last run, discarding persisted queue/history state")
		}
	}

	hub := broadcast.NewHub()

	backoff := makeBackoff(*cfg.Retries.InitialBackoff, *cfg.Retries.MaxBackoff)
	initCtl := initctl.New(hub, *cfg.Retries.MaxInitializationAttempts, backoff, *cfg.Retries.InitializationTotalBudget, 30*time.Second)
	hub.SetStatusProvider(initCtl.Status)

	srv := api.New(idx, queue, hist, store, initCtl, hub, opts.TempDir)
	srv.ApplySnapshot(cfg)

	a := &App{
		cfgHolder:                    cfgHolder,
		opts:                         opts,
		index:                        idx,
		history:                      hist,
		store:                        store,
		queue:                        queue,
		hub:                          hub,
		initCtl:                      initCtl,
		server:                       srv,
		queueMonitorInterval:         *cfg.Video.QueueMonitorInterval,
		queueCriticalMonitorInterval: *cfg.Video.QueueCriticalMonitorInterval,
	}
	a.sched = scheduler.New(a.schedulerTasks(), *cfg.Video.UpdateInterval, 30*time.Minute, time.Minute)
	return a, nil
}

// makeBackoff returns doubling backoff clamped to max, grounded on
// RetriesConfig's InitialBackoff/MaxBackoff pair (spec §4.10).
func makeBackoff(initial, maxDelay time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		d := initial
		for i := 1; i < attempt; i++ {
			d *= 2
			if d > maxDelay {
				return maxDelay
			}
		}
		return d
	}
}

func (a *App) schedulerTasks() scheduler.Tasks {
	return scheduler.Tasks{
		RefreshIndex: a.refreshIndex,
		OnIndexDeltaExceeded: func() {
			metrics.IndexDeltaExceeded.Inc()
			a.queue.Clear()
			if err := a.store.Save(statestore.Snapshot{SavedAt: time.Now()}); err != nil {
				log.WithComponent("app").Warn().Err(err).Msg("failed to discard snapshot after index delta")
			}
			log.WithComponent("app").Warn().Msg("index delta exceeded threshold, queue cleared and snapshot discarded")
		},
		CleanupTemp: a.cleanupTemp,
		SaveState:   a.saveState,
	}
}

// buildIndexOnStartup implements spec §4.2's rebuild decision for the
// one-time startup step: if LoadFromDisk already produced a regular and
// seasonal index whose seasonal directory set still matches config, and
// the config hash hasn't changed since that index was built
// (system.lastConfigHash), skip the filesystem walk entirely. Any other
// case rebuilds unconditionally. The periodic scheduler's refreshIndex
// always rescans regardless of this decision — that task's entire
// purpose is picking up filesystem changes on a timer.
func (a *App) buildIndexOnStartup(ctx context.Context, cfg config.FileConfig, currentHash string) (int, error) {
	seasonalDirs := make([]string, len(cfg.SeasonalDirectories))
	for i, s := range cfg.SeasonalDirectories {
		seasonalDirs[i] = s.Directory
	}

	lastHash := ""
	if cfg.System != nil {
		lastHash = cfg.System.LastConfigHash
	}

	if !a.index.NeedsRebuild(seasonalDirs) && lastHash != "" && lastHash == currentHash {
		log.WithComponent("app").Info().Int("count", a.index.Count()).Msg("index unchanged since last run, skipping startup scan")
		return a.index.Count(), nil
	}

	if err := a.index.Rebuild(ctx, cfg.Directories, cfg.SeasonalDirectories, cfg.Files.SupportedVideoExtensions, nil); err != nil {
		return 0, err
	}
	return a.index.Count(), nil
}

func (a *App) refreshIndex(ctx context.Context) (int, error) {
	before := a.index.Count()
	cfg := a.cfgHolder.Current().Config
	if err := a.index.Rebuild(ctx, cfg.Directories, cfg.SeasonalDirectories, cfg.Files.SupportedVideoExtensions, nil); err != nil {
		return 0, err
	}
	after := a.index.Count()
	metrics.IndexSize.Set(float64(after))
	return after - before, nil
}

func (a *App) cleanupTemp(ctx context.Context) error {
	snap, _, err := a.store.Load()
	if err != nil {
		return err
	}
	preserve := statestore.PreserveSet(a.queue.Items(), a.history.Playback(), snap)
	if _, err := statestore.SweepTempDir(a.opts.TempDir, preserve); err != nil {
		return err
	}
	return nil
}

func (a *App) saveState(ctx context.Context) error {
	cfg := a.cfgHolder.Current()
	snapshot := statestore.Snapshot{
		SavedAt:         time.Now(),
		ConfigHash:      cfg.Hash,
		CombinedQueue:   a.queue.Items(),
		PlaybackHistory: a.history.Playback(),
		Stats:           a.server.StatsSnapshot(),
	}
	return a.store.Save(snapshot)
}

// Run starts the initialization sequence, every background subsystem,
// and the HTTP listener; it blocks until ctx is cancelled or a fatal
// error occurs, mirroring the teacher's errgroup-based App.Run.
func (a *App) Run(ctx context.Context, httpAddr string, allowedOrigins []string, csp string, rateLimitRPS int) error {
	g, ctx := errgroup.WithContext(ctx)

	if stop, err := a.cfgHolder.Watch(); err != nil {
		log.WithComponent("app").Warn().Err(err).Msg("failed to start config watcher")
	} else {
		defer stop()
	}

	applyCh := a.cfgHolder.Subscribe()
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case snap := <-applyCh:
				a.server.ApplySnapshot(snap.Config)
			}
		}
	})

	g.Go(func() error {
		hupCh := make(chan os.Signal, 1)
		signal.Notify(hupCh, syscall.SIGHUP)
		defer signal.Stop(hupCh)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hupCh:
				log.WithComponent("app").Info().Msg("received SIGHUP, reloading config")
				if err := a.cfgHolder.Reload(); err != nil {
					log.WithComponent("app").Warn().Err(err).Msg("config reload failed")
				}
			}
		}
	})

	g.Go(func() error {
		snap := a.cfgHolder.Current()
		cfg := snap.Config
		steps := initctl.Steps{
			LoadConfig: func(ctx context.Context) error { return nil },
			BuildIndex: func(ctx context.Context) (int, error) {
				return a.buildIndexOnStartup(ctx, cfg, snap.Hash)
			},
			FillQueue: func(ctx context.Context) error {
				a.queue.Fill(ctx, nil)
				return nil
			},
		}
		if err := a.initCtl.Run(ctx, steps); err != nil {
			metrics.InitializationAttempts.WithLabelValues("failed").Inc()
			log.WithComponent("app").Error().Err(err).Msg("initialization failed terminally")
			return nil
		}
		metrics.InitializationAttempts.WithLabelValues("succeeded").Inc()
		return nil
	})

	a.sched.Start(ctx)

	g.Go(func() error {
		a.queue.StartMonitoring(ctx, a.queueMonitorInterval, a.queueCriticalMonitorInterval)
		return nil
	})

	g.Go(func() error {
		a.hub.Run()
		return nil
	})

	router := api.NewRouter(a.server, allowedOrigins, csp, rateLimitRPS)
	a.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		_ = a.httpServer.Shutdown(shutdownCtx)
		a.hub.Close()
		return nil
	})

	return g.Wait()
}
