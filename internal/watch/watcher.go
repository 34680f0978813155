// Package watch observes a downloads folder with fsnotify, debounces the
// notification bursts a single download produces, and hands settled files to
// the pipeline exactly once.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ysakai/filedrop/internal/model"
	"github.com/ysakai/filedrop/internal/settle"
	"github.com/ysakai/filedrop/internal/tracker"
)

// Config holds the per-event-kind debounce delays. Renames usually mean a
// finished download; write events fire repeatedly while the file is still
// growing, so they wait longest.
type Config struct {
	CreateDelay time.Duration
	RenameDelay time.Duration
	WriteDelay  time.Duration
}

// DefaultConfig returns the default debounce delays.
func DefaultConfig() Config {
	return Config{
		CreateDelay: 2 * time.Second,
		RenameDelay: 1 * time.Second,
		WriteDelay:  3 * time.Second,
	}
}

// Extensions browsers use for in-progress downloads. These never settle
// under their temporary name, so they are filtered up front.
var skipExtensions = []string{".tmp", ".crdownload", ".partial", ".download"}

// Watcher watches one folder, non-recursively.
type Watcher struct {
	detector *settle.Detector
	set      *tracker.ProcessedSet
	onReady  func(path string) error

	cfg     Config
	fw      *fsnotify.Watcher
	pending map[string]*time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New creates a watcher. onReady is invoked once per successfully claimed
// arrival, from a background goroutine; its error decides whether the file
// is recorded as processed or rejected.
func New(detector *settle.Detector, set *tracker.ProcessedSet, onReady func(path string) error) *Watcher {
	return NewWithConfig(detector, set, onReady, DefaultConfig())
}

// NewWithConfig creates a watcher with custom debounce delays.
func NewWithConfig(detector *settle.Detector, set *tracker.ProcessedSet, onReady func(path string) error, cfg Config) *Watcher {
	return &Watcher{
		detector: detector,
		set:      set,
		onReady:  onReady,
		cfg:      cfg,
		pending:  make(map[string]*time.Timer),
	}
}

// Start begins watching folder, creating it if missing. The folder's current
// listing is seeded into the processed set so historic files are ignored.
func (w *Watcher) Start(folder string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := os.MkdirAll(folder, 0o750); err != nil {
		return fmt.Errorf("failed to create watch folder: %w", err)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return fmt.Errorf("failed to list watch folder: %w", err)
	}
	seed := make([]string, 0, len(entries))
	for _, e := range entries {
		seed = append(seed, filepath.Join(folder, e.Name()))
	}
	w.set.Seed(seed)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(folder); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch %s: %w", folder, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.fw = fw
	w.ctx, w.cancel = ctx, cancel
	w.running = true

	w.wg.Add(1)
	go w.loop(ctx, fw)

	slog.Info("Watching folder", "folder", folder, "seeded", len(seed))
	return nil
}

// Stop halts event dispatch, cancels pending deferred checks, and waits for
// in-flight checks to finish. Claims attempted after teardown are refused by
// the processed set without error.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.cancel()
	fw := w.fw
	w.mu.Unlock()

	// Closing the fsnotify watcher ends the loop through its closed
	// channels; the loop holds its own reference, so w.fw is left alone.
	_ = fw.Close()
	w.wg.Wait()
	slog.Info("Watcher stopped")
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	var delay time.Duration
	switch {
	case ev.Op.Has(fsnotify.Create):
		// The new name of a rename also surfaces as Create on most
		// platforms, so this covers completed "moved to" downloads.
		delay = w.cfg.CreateDelay
	case ev.Op.Has(fsnotify.Rename):
		delay = w.cfg.RenameDelay
	case ev.Op.Has(fsnotify.Write):
		delay = w.cfg.WriteDelay
	default:
		return
	}

	if !shouldProcess(ev.Name) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil || info.IsDir() {
		return
	}

	slog.Debug("Filesystem event", "op", ev.Op.String(), "path", ev.Name, "delay", delay)
	w.schedule(ev.Name, delay)
}

// shouldProcess filters out hidden files and incomplete-download markers.
func shouldProcess(path string) bool {
	name := filepath.Base(path)
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	lower := strings.ToLower(name)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}

// schedule defers a settle check for path. A later event for the same path
// resets the timer to its own delay; duplicate suppression is ultimately the
// processed set's job, this just trims redundant probing.
func (w *Watcher) schedule(path string, delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(delay, func() { w.check(path) })
}

// check runs the settle probe for path and forwards it once claimed. Runs as
// an independent timer task, concurrent with checks for other paths.
func (w *Watcher) check(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	ctx := w.ctx
	w.mu.Unlock()
	defer w.wg.Done()

	wf := model.NewWatchedFile(path)
	defer func() {
		if wf.Done() {
			slog.Debug("File left the pipeline",
				"path", path,
				"state", wf.State,
				"samples", len(wf.SizeHistory))
		}
	}()
	wf.State = model.StateSettling

	history, err := w.detector.WaitUntilReady(ctx, path)
	for _, s := range history {
		wf.RecordSample(s)
	}
	if err != nil {
		wf.State = model.StateRejected
		return
	}
	wf.State = model.StateReady

	if !w.set.TryClaim(path) {
		return
	}
	if w.onReady(path) != nil {
		wf.State = model.StateRejected
		return
	}
	wf.State = model.StateProcessed
}
