package follow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/therealutkarshpriyadarshi/logview/internal/loader"
	"github.com/therealutkarshpriyadarshi/logview/internal/logging"
	"github.com/therealutkarshpriyadarshi/logview/internal/metrics"
	"github.com/therealutkarshpriyadarshi/logview/internal/store"
)

// Reload reasons
const (
	ReasonInitial = "initial"
	ReasonWrite   = "write"
	ReasonPoll    = "poll"
	ReasonRotate  = "rotate"
)

// Config holds follower configuration
type Config struct {
	MinInterval  time.Duration // minimum spacing between published stores
	Burst        int
	PollInterval time.Duration // fallback for missed watcher events
	Loader       loader.Config
}

// Follower watches one log file and publishes a new record store every time
// complete lines are appended to it.
type Follower struct {
	path    string
	logType string
	cfg     Config
	loader  *loader.Loader
	logger  *logging.Logger
	metrics *metrics.Collector
	limiter *rate.Limiter
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	current *store.Store
	file    *os.File
	partial []byte
	next    int
	sent    *store.Store

	wake     chan string
	updates  chan *store.Store
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a follower for path. Start must be called before any store is
// published.
func New(path string, cfg Config, logger *logging.Logger, collector *metrics.Collector) (*Follower, error) {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if logger == nil {
		logger = logging.Nop()
	}

	ld, err := loader.New(cfg.Loader, logger, collector)
	if err != nil {
		return nil, err
	}

	logType := cfg.Loader.LogType
	if logType == "" {
		logType = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &Follower{
		path:    path,
		logType: logType,
		cfg:     cfg,
		loader:  ld,
		logger:  logger.WithComponent("follow").WithField("path", path),
		metrics: collector,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), cfg.Burst),
		wake:    make(chan string, 1),
		updates: make(chan *store.Store, 1),
	}, nil
}

// Start reads the current contents of the file, returns them as the first
// store and begins watching for appended lines.
func (f *Follower) Start(ctx context.Context) (*store.Store, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := f.open(); err != nil {
		watcher.Close()
		return nil, err
	}
	f.current = store.New(f.logType, nil)
	if err := f.readAppended(); err != nil {
		watcher.Close()
		f.closeFile()
		return nil, err
	}
	f.sent = f.current
	f.count(ReasonInitial)

	if err := watcher.Add(f.path); err != nil {
		f.logger.Warn().Err(err).Msg("Failed to add file to watcher, polling only")
	}
	f.watcher = watcher

	ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(2)
	go f.watchLoop(ctx)
	go f.reloadLoop(ctx)

	f.logger.Info().Int("records", f.current.Len()).Msg("Following file")
	return f.Current(), nil
}

// Stop stops watching and closes the updates channel. Calling it again is a
// no-op.
func (f *Follower) Stop() {
	f.stopOnce.Do(func() {
		if f.cancel != nil {
			f.cancel()
		}
		if f.watcher != nil {
			f.watcher.Close()
		}
		f.wg.Wait()
		f.closeFile()
		close(f.updates)
	})
}

// Updates delivers each newly published store. Only the latest unread store
// is kept, so a slow reader skips intermediate ones.
func (f *Follower) Updates() <-chan *store.Store {
	return f.updates
}

// Current returns the most recently published store
func (f *Follower) Current() *store.Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Follower) open() error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	f.mu.Lock()
	f.file = file
	f.partial = nil
	f.mu.Unlock()
	return nil
}

func (f *Follower) closeFile() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file != nil {
		f.file.Close()
		f.file = nil
	}
}

// readAppended decodes every complete line written since the last read and
// appends the records to the current store. A trailing line without a newline
// is held back until it is completed.
func (f *Follower) readAppended() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	data, err := io.ReadAll(f.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	data = append(f.partial, data...)
	cut := bytes.LastIndexByte(data, '\n')
	if cut < 0 {
		f.partial = data
		return nil
	}
	f.partial = bytes.Clone(data[cut+1:])

	recs, err := f.loader.Read(bytes.NewReader(data[:cut+1]), f.logType, f.next)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}

	f.next = loader.NextIndex(recs, f.next)
	f.current = f.current.Append(recs...)
	return nil
}

// publish sends the current store if it differs from the last one sent. Only
// reloadLoop calls it.
func (f *Follower) publish() bool {
	s := f.Current()
	if s == f.sent {
		return false
	}
	f.sent = s

	// single producer: draining first guarantees the send never blocks
	select {
	case <-f.updates:
	default:
	}
	f.updates <- s
	return true
}

func (f *Follower) signal(reason string) {
	select {
	case f.wake <- reason:
	default:
	}
}

func (f *Follower) reloadLoop(ctx context.Context) {
	defer f.wg.Done()

	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	for {
		var reason string
		select {
		case <-ctx.Done():
			return
		case reason = <-f.wake:
		case <-ticker.C:
			reason = ReasonPoll
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return
		}

		if err := f.readAppended(); err != nil {
			f.logger.Error().Err(err).Msg("Error reading appended lines")
			continue
		}
		if !f.publish() {
			continue
		}

		f.count(reason)
		f.logger.Debug().
			Str("reason", reason).
			Int("records", f.Current().Len()).
			Msg("Published grown store")
	}
}

func (f *Follower) watchLoop(ctx context.Context) {
	defer f.wg.Done()

	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			f.handleEvent(ctx, event)

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Error().Err(err).Msg("File watcher error")

		case <-ctx.Done():
			return
		}
	}
}

func (f *Follower) handleEvent(ctx context.Context, event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Write):
		f.signal(ReasonWrite)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		f.logger.Info().Msg("File rotation detected")
		// pick up whatever was written before the rename
		f.signal(ReasonWrite)
		if err := f.reopen(ctx); err != nil {
			f.logger.Error().Err(err).Msg("Failed to reopen file")
			return
		}
		f.signal(ReasonRotate)
	}
}

// reopen switches to the file now at path. Record indices keep counting from
// where the previous file stopped.
func (f *Follower) reopen(ctx context.Context) error {
	var err error
	for attempt := 0; attempt < 10; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}

		if _, err = os.Stat(f.path); err == nil {
			break
		}
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file did not reappear: %w", err)
		}
		return err
	}

	// drain the old handle before switching
	if err := f.readAppended(); err != nil {
		f.logger.Warn().Err(err).Msg("Failed to drain rotated file")
	}
	f.closeFile()
	if err := f.open(); err != nil {
		return err
	}
	if err := f.watcher.Add(f.path); err != nil {
		f.logger.Warn().Err(err).Msg("Failed to re-add file to watcher")
	}
	return nil
}

func (f *Follower) count(reason string) {
	if f.metrics != nil {
		f.metrics.FollowReloads.WithLabelValues(reason).Inc()
	}
}
