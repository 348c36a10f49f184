package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"termio/internal/config"
	"termio/pkg/console"
)

const defaultDebounceInterval = 500 * time.Millisecond

// Apply registers every sink from the list on c, collecting registration
// errors. It is the one-shot companion to Watcher for programs that load
// their configuration once at startup.
func Apply(c *console.Console, sinks []config.SinkConfig) error {
	var errs []error
	for _, s := range sinks {
		if err := c.RegisterOutputFile(s.Path, s.Options()...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits after a filesystem event
// for further changes before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// Watcher reconciles a Console's sink set against a configuration file.
//
// It watches the file's directory with fsnotify, debounces rapid
// successive events, and reapplies the sink list once each change
// settles. A reload that fails to parse or validate is logged and
// skipped, leaving the previous sink set active.
type Watcher struct {
	console  *console.Console
	path     string
	debounce time.Duration

	mu sync.Mutex

	// managed holds the sinks this watcher registered, keyed by the
	// normalized sink path. Unregistration is limited to this set.
	managed map[string]config.SinkConfig

	lastColor config.ColorMode
	pending   *time.Timer
	watcher   *fsnotify.Watcher
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewWatcher creates a watcher that reconciles c's sinks against the
// configuration file at path.
func NewWatcher(c *console.Console, path string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		console:  c,
		path:     filepath.Clean(path),
		debounce: defaultDebounceInterval,
		managed:  make(map[string]config.SinkConfig),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start applies the configuration once and begins watching for changes.
// An initial load or registration failure stops the watcher and is
// returned; later failures are only logged.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("creating filesystem watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files by rename,
	// which would drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		w.mu.Unlock()
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.processEvents(ctx, watcher)

	cfg, found, err := config.Load(w.path)
	if err != nil {
		w.Stop()
		return err
	}

	w.mu.Lock()
	w.lastColor = cfg.Color
	applyErr := w.applySinks(cfg.Sinks)
	w.mu.Unlock()
	if applyErr != nil {
		w.Stop()
		return applyErr
	}

	if !found {
		w.console.Logf("No config file found at %s, using defaults", w.path)
	}
	w.console.Logf("Watching %s for configuration changes", w.path)
	return nil
}

// Stop stops watching and cancels any pending reload. Managed sinks stay
// registered; closing them is the Console's shutdown job.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	watcher := w.watcher
	w.watcher = nil
	doneCh := w.doneCh
	w.mu.Unlock()

	err := watcher.Close()
	<-doneCh
	return err
}

// processEvents handles filesystem events until the context is canceled,
// Stop is called, or the watcher's channels close.
func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return

		case <-w.stopCh:
			w.cancelPending()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.console.LogErrorf("Configuration watcher error: %v", err)
		}
	}
}

// handleEvent filters directory noise down to changes of the watched
// file. Remove counts too: a deleted configuration means the defaults,
// which unregisters every managed sink.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	w.debounceReload()
}

// debounceReload resets the reload timer so rapid successive events
// collapse into a single reload.
func (w *Watcher) debounceReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
}

// reload loads the configuration and reapplies the sink list. Failures
// leave the previous sink set active until a valid configuration shows
// up.
func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	cfg, found, err := config.Load(w.path)
	if err != nil {
		w.console.LogErrorf("Configuration reload failed: %v", err)
		return
	}

	if cfg.Color != w.lastColor {
		w.console.LogWarningf("Color mode is now %q; the change takes effect on restart", cfg.Color)
		w.lastColor = cfg.Color
	}

	if err := w.applySinks(cfg.Sinks); err != nil {
		w.console.LogErrorf("Configuration reload failed: %v", err)
		return
	}
	if found {
		w.console.Logf("Reloaded configuration from %s", w.path)
	} else {
		w.console.Logf("No config file found at %s, using defaults", w.path)
	}
}

// applySinks diffs the desired sink list against the managed set,
// registering newcomers and unregistering leavers. The caller holds w.mu.
func (w *Watcher) applySinks(sinks []config.SinkConfig) error {
	desired := make(map[string]config.SinkConfig, len(sinks))
	for _, s := range sinks {
		desired[console.SinkPath(s.Path)] = s
	}

	var errs []error
	for key, s := range desired {
		if _, ok := w.managed[key]; !ok {
			if err := w.console.RegisterOutputFile(s.Path, s.Options()...); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		// Keep the stored entry fresh so a later unregister uses the
		// current announce setting.
		w.managed[key] = s
	}

	for key, s := range w.managed {
		if _, ok := desired[key]; ok {
			continue
		}
		// A close failure still removes the sink from the registry, so the
		// managed entry goes away either way.
		if err := w.console.UnregisterOutputFile(key, s.Options()...); err != nil {
			errs = append(errs, err)
		}
		delete(w.managed, key)
	}

	return errors.Join(errs...)
}

// Managed returns the normalized paths of the sinks this watcher
// currently manages, for inspection.
func (w *Watcher) Managed() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.managed))
	for key := range w.managed {
		out = append(out, key)
	}
	return out
}
