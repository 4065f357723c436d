package config

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loopreel/loopreel/internal/log"
)

const debounceWindow = 500 * time.Millisecond

// Snapshot is an immutable, fully-resolved configuration together with
// the hash used to decide whether persisted state survives a reload.
type Snapshot struct {
	Config FileConfig
	Hash   string
}

// Holder exposes the current config snapshot via an atomic pointer and
// notifies registered listeners on every successful reload, mirroring
// the teacher's file-watch-and-swap reload design.
type Holder struct {
	path    string
	current atomic.Pointer[Snapshot]

	mu        sync.Mutex
	listeners []chan Snapshot

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewHolder loads path once and returns a Holder wrapping the result.
func NewHolder(path string) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	h := &Holder{path: path}
	h.current.Store(&Snapshot{Config: cfg, Hash: Hash(cfg)})
	return h, nil
}

// Current returns the most recently loaded snapshot.
func (h *Holder) Current() Snapshot {
	return *h.current.Load()
}

// Subscribe registers a channel that receives every successful reload.
// The channel is buffered by 1 so a slow consumer never blocks the
// watcher goroutine; it only ever holds the latest snapshot.
func (h *Holder) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	h.mu.Lock()
	h.listeners = append(h.listeners, ch)
	h.mu.Unlock()
	return ch
}

// Reload re-reads the config file, swaps the current snapshot, and
// notifies subscribers. Safe to call directly (e.g. on SIGHUP) or from
// the file watcher.
func (h *Holder) Reload() error {
	cfg, err := Load(h.path)
	if err != nil {
		log.WithComponent("config").Error().Err(err).Msg("config reload failed, keeping previous snapshot")
		return err
	}
	snap := Snapshot{Config: cfg, Hash: Hash(cfg)}
	h.current.Store(&snap)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.listeners {
		select {
		case ch <- snap:
		default:
			// drop stale pending notification, replace with latest
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	log.WithComponent("config").Info().Str("hash", snap.Hash).Msg("config reloaded")
	return nil
}

// Watch starts an fsnotify watcher on the config file's directory and
// debounces rapid write bursts (editors often emit several events per
// save) before triggering Reload. It runs until stop() is called or the
// watcher errors out irrecoverably.
func (h *Holder) Watch() (stop func(), err error) {
	if h.path == "" {
		return func() {}, nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := parentDir(h.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	h.watcher = watcher
	h.done = make(chan struct{})

	go h.watchLoop()

	return func() {
		close(h.done)
		_ = watcher.Close()
	}, nil
}

func (h *Holder) watchLoop() {
	logger := log.WithComponent("config")
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-h.done:
			return
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if !matchesTarget(ev.Name, h.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			if err := h.Reload(); err != nil {
				logger.Error().Err(err).Msg("debounced config reload failed")
			}
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("config watcher error")
		}
	}
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

func matchesTarget(eventPath, target string) bool {
	return eventPath == target || eventPath == "./"+target
}
