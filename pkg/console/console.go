package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
)

// State describes the lifecycle of a Console's background workers.
type State string

const (
	// StateStopped means no workers are running. A Console starts here and
	// returns here after Stop.
	StateStopped State = "stopped"
	// StateRunning means the drain and input workers are active.
	StateRunning State = "running"
	// StateStopping means Stop is in progress: workers are being joined
	// and the final drain is running.
	StateStopping State = "stopping"
	// StateFailed means the drain worker died on a write error. Entries
	// keep queueing but are no longer written; LastError holds the cause.
	StateFailed State = "failed"
)

var (
	// ErrNotRunning is returned by package-level operations used before
	// Init.
	ErrNotRunning = errors.New("console not running")
	// ErrAlreadyRunning is returned by Start and Init when the console is
	// already started.
	ErrAlreadyRunning = errors.New("console already running")
	// ErrClosed is returned by blocking waits when the console shuts down
	// or its input source ends, and by Start on a spent instance.
	ErrClosed = errors.New("console closed")
)

// Option configures a Console at construction time.
type Option func(*Console)

// WithOutput redirects console output away from standard output. Color is
// disabled for non-terminal writers unless forced with WithColor.
func WithOutput(w io.Writer) Option {
	return func(c *Console) { c.out = w }
}

// WithInput replaces standard input as the line source for the input
// buffer.
func WithInput(r io.Reader) Option {
	return func(c *Console) { c.in = r }
}

// WithColor forces console coloring on or off instead of detecting a
// terminal.
func WithColor(enabled bool) Option {
	return func(c *Console) {
		c.color = enabled
		c.colorSet = true
	}
}

// WithoutSignalHandling leaves interrupt signals alone. The caller then
// owns flush-on-interrupt.
func WithoutSignalHandling() Option {
	return func(c *Console) { c.signals = false }
}

// WithClock substitutes the time source used for the session timestamp and
// entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Console) { c.now = now }
}

// Console is one instance of the logging and input facility: the log
// queue, the input buffer, the sink registry, and the lifecycle of the two
// background workers. Programs that want process-wide behavior use the
// package-level functions, which share a single default Console; tests
// construct isolated instances with New.
//
// A Console runs one session: New, Start, Stop. Starting a stopped
// instance again returns ErrClosed; Init at the package level creates a
// fresh instance per session instead.
type Console struct {
	// Fixed at construction.
	out      io.Writer
	in       io.Reader
	now      func() time.Time
	color    bool
	colorSet bool
	signals  bool

	sessionStart time.Time
	sessionID    string

	logQ     *fifo[Entry]
	inputQ   *fifo[string]
	registry *sinkRegistry

	// outMu serializes console writes so concurrent banner, entry, and
	// color output never interleave.
	outMu sync.Mutex

	mu         sync.RWMutex
	state      State
	started    bool
	lastErr    error
	cancel     context.CancelFunc
	finalStats []SinkStat

	drainDone chan struct{}
	inputDone chan struct{}
	stopDone  chan struct{}

	sigCh   chan os.Signal
	sigQuit chan struct{}
}

// New constructs a stopped Console. Without options it targets standard
// output and standard input, detects terminal color support, and installs
// interrupt handling on Start. The session timestamp is captured here, so
// sinks registered before Start carry the same session identity.
func New(opts ...Option) *Console {
	c := &Console{
		out:      os.Stdout,
		in:       os.Stdin,
		now:      time.Now,
		signals:  true,
		state:    StateStopped,
		logQ:     newFIFO[Entry](),
		inputQ:   newFIFO[string](),
		registry: newSinkRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.colorSet {
		c.color = isTerminal(c.out)
	}
	c.sessionStart = c.now()
	c.sessionID = uuid.New().String()
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Start writes the startup banner and launches the drain and input
// workers. Entries enqueued before Start are drained once it runs.
func (c *Console) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStopped {
		return ErrAlreadyRunning
	}
	if c.started {
		return ErrClosed
	}

	// The startup banner goes straight to the console; the drain worker is
	// not running yet. The session line rides along in the same write and
	// stays console-only. Sinks get their own banner when they join.
	if err := c.writeConsole(sessionBanner(c.sessionStart, c.now()) + sessionLine(c.sessionID)); err != nil {
		return fmt.Errorf("writing startup banner: %w", err)
	}

	c.started = true
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.drainDone = make(chan struct{})
	c.inputDone = make(chan struct{})
	c.stopDone = make(chan struct{})

	go c.drainLoop(ctx)
	go c.inputLoop(ctx)

	if c.signals {
		c.watchSignals()
	}

	c.state = StateRunning
	return nil
}

// Stop shuts the facility down in order: cancel the workers, join the
// drain worker, run one final full drain so everything enqueued before
// Stop is written, close every sink, and join the input worker. It is
// idempotent; concurrent callers block until the first Stop finishes.
//
// A read already blocked on the input source cannot be interrupted
// portably. File-backed sources are nudged with an expired read deadline;
// for anything else shutdown may wait for one more line.
func (c *Console) Stop() error {
	c.mu.Lock()
	switch c.state {
	case StateStopped:
		c.mu.Unlock()
		return nil
	case StateStopping:
		done := c.stopDone
		c.mu.Unlock()
		<-done
		return nil
	}
	c.state = StateStopping
	cancel := c.cancel
	c.mu.Unlock()

	c.stopSignals()

	cancel()
	c.logQ.close()
	c.inputQ.close()
	c.unblockInput()

	<-c.drainDone

	// Entries that raced between the worker's last pass and the queue
	// closing above are still in the queue; write them before any sink
	// closes.
	drainErr := c.drainAll()

	// Snapshot the per-sink counters before the registry empties, so
	// Stats keeps answering after shutdown.
	finalStats := c.registry.stats()

	closeErr := c.registry.unregisterAll()

	<-c.inputDone

	c.mu.Lock()
	c.finalStats = finalStats
	c.state = StateStopped
	c.mu.Unlock()
	close(c.stopDone)

	return errors.Join(drainErr, closeErr)
}

// watchSignals installs the interrupt handler: flush via Stop, then
// restore the default disposition and re-raise so the process still dies
// of the signal.
func (c *Console) watchSignals() {
	c.sigCh = make(chan os.Signal, 1)
	c.sigQuit = make(chan struct{})
	signal.Notify(c.sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-c.sigCh:
			c.Stop()
			signal.Reset(sig)
			if s, ok := sig.(syscall.Signal); ok {
				_ = syscall.Kill(os.Getpid(), s)
			}
		case <-c.sigQuit:
		}
	}()
}

func (c *Console) stopSignals() {
	if c.sigCh == nil {
		return
	}
	signal.Stop(c.sigCh)
	close(c.sigQuit)
}

// State returns the lifecycle state of the background workers.
func (c *Console) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LastError returns the error that killed the drain worker, or nil.
func (c *Console) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// SessionStart returns the timestamp that identifies this session in
// banners.
func (c *Console) SessionStart() time.Time {
	return c.sessionStart
}

// SessionID returns the unique identifier of this Console instance.
func (c *Console) SessionID() string {
	return c.sessionID
}

// Stats returns a snapshot of every registered sink, sorted by path.
// After Stop it returns the final counts of the finished session.
func (c *Console) Stats() []SinkStat {
	c.mu.RLock()
	final := c.finalStats
	c.mu.RUnlock()
	if final != nil {
		return final
	}
	return c.registry.stats()
}

// SinkPaths returns the normalized paths of the registered sinks, sorted.
func (c *Console) SinkPaths() []string {
	return c.registry.paths()
}

// RegisterOutputFile opens path as a log sink. The .log extension is
// appended when missing; registering an already-registered path is a
// no-op. The file is created if absent and opened in append mode unless
// WithOverwrite truncates it. On open, the file receives the session
// banner; afterwards it mirrors every formatted entry. Registration works
// before Start: it does not depend on the drain worker.
func (c *Console) RegisterOutputFile(path string, opts ...FileOption) error {
	o := applyFileOptions(opts)
	key, added, err := c.registry.register(path, c.sessionStart, c.now(), o.overwrite)
	if err != nil {
		return err
	}
	if added && o.announce {
		c.Logf("Registered output file %s", key)
	}
	return nil
}

// UnregisterOutputFile closes and removes the sink for path. Unknown
// paths are a no-op. The announce line, like all logging, is written
// asynchronously, so it lands in the console and the remaining sinks, not
// in the departing file.
func (c *Console) UnregisterOutputFile(path string, opts ...FileOption) error {
	o := applyFileOptions(opts)
	key, removed, err := c.registry.unregister(path)
	if err != nil {
		return err
	}
	if removed && o.announce {
		c.Logf("Unregistered output file %s", key)
	}
	return nil
}

// UnregisterAllOutputFiles closes and removes every registered sink.
func (c *Console) UnregisterAllOutputFiles() error {
	return c.registry.unregisterAll()
}

// Log enqueues text at INFO severity. It never blocks on I/O.
func (c *Console) Log(text string) {
	c.enqueue(SeverityInfo, text)
}

// Logf enqueues a formatted line at INFO severity.
func (c *Console) Logf(format string, args ...any) {
	c.enqueue(SeverityInfo, fmt.Sprintf(format, args...))
}

// LogWarning enqueues text at WARNING severity.
func (c *Console) LogWarning(text string) {
	c.enqueue(SeverityWarning, text)
}

// LogWarningf enqueues a formatted line at WARNING severity.
func (c *Console) LogWarningf(format string, args ...any) {
	c.enqueue(SeverityWarning, fmt.Sprintf(format, args...))
}

// LogError enqueues text at ERROR severity.
func (c *Console) LogError(text string) {
	c.enqueue(SeverityError, text)
}

// LogErrorf enqueues a formatted line at ERROR severity.
func (c *Console) LogErrorf(format string, args ...any) {
	c.enqueue(SeverityError, fmt.Sprintf(format, args...))
}

// LogNoFormat enqueues text that is written verbatim: no timestamp, no
// tag, no color.
func (c *Console) LogNoFormat(text string) {
	c.enqueue(SeverityIgnore, text)
}

func (c *Console) enqueue(severity Severity, text string) {
	c.logQ.push(Entry{Severity: severity, Text: text})
}

// writeConsole writes s to the console under the writer lock.
func (c *Console) writeConsole(s string) error {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if _, err := io.WriteString(c.out, s); err != nil {
		return fmt.Errorf("writing to console: %w", err)
	}
	return nil
}
