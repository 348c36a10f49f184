package console

import (
	"context"
	"sync"
)

// The package-level functions share one process-wide Console so that any
// part of a program can log or read input without plumbing an instance
// around. Init creates it, Close tears it down; everything else is safe to
// call in between from any goroutine, and degrades to a harmless no-op (or
// ErrNotRunning, for operations that report errors) when Init never ran.

var (
	defaultMu      sync.RWMutex
	defaultConsole *Console
)

// Init creates and starts the process-wide Console behind the package
// functions. Calling Init while a previous session is still running
// returns ErrAlreadyRunning; after Close, Init begins a fresh session.
func Init(opts ...Option) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultConsole != nil && defaultConsole.State() != StateStopped {
		return ErrAlreadyRunning
	}
	c := New(opts...)
	if err := c.Start(); err != nil {
		return err
	}
	defaultConsole = c
	return nil
}

// Close stops the process-wide Console: pending entries are drained and
// every sink is closed. Safe to call when Init never ran, and idempotent.
func Close() error {
	c := Default()
	if c == nil {
		return nil
	}
	return c.Stop()
}

// Default returns the process-wide Console, or nil before the first Init.
func Default() *Console {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultConsole
}

// RegisterOutputFile opens path as a log sink on the process-wide Console.
func RegisterOutputFile(path string, opts ...FileOption) error {
	c := Default()
	if c == nil {
		return ErrNotRunning
	}
	return c.RegisterOutputFile(path, opts...)
}

// UnregisterOutputFile closes and removes the sink for path on the
// process-wide Console.
func UnregisterOutputFile(path string, opts ...FileOption) error {
	c := Default()
	if c == nil {
		return ErrNotRunning
	}
	return c.UnregisterOutputFile(path, opts...)
}

// UnregisterAllOutputFiles closes and removes every sink on the
// process-wide Console.
func UnregisterAllOutputFiles() error {
	c := Default()
	if c == nil {
		return ErrNotRunning
	}
	return c.UnregisterAllOutputFiles()
}

// Log enqueues text at INFO severity. No-op before Init.
func Log(text string) {
	if c := Default(); c != nil {
		c.Log(text)
	}
}

// Logf enqueues a formatted line at INFO severity. No-op before Init.
func Logf(format string, args ...any) {
	if c := Default(); c != nil {
		c.Logf(format, args...)
	}
}

// LogWarning enqueues text at WARNING severity. No-op before Init.
func LogWarning(text string) {
	if c := Default(); c != nil {
		c.LogWarning(text)
	}
}

// LogWarningf enqueues a formatted line at WARNING severity. No-op before
// Init.
func LogWarningf(format string, args ...any) {
	if c := Default(); c != nil {
		c.LogWarningf(format, args...)
	}
}

// LogError enqueues text at ERROR severity. No-op before Init.
func LogError(text string) {
	if c := Default(); c != nil {
		c.LogError(text)
	}
}

// LogErrorf enqueues a formatted line at ERROR severity. No-op before
// Init.
func LogErrorf(format string, args ...any) {
	if c := Default(); c != nil {
		c.LogErrorf(format, args...)
	}
}

// LogNoFormat enqueues text written verbatim: no timestamp, no tag, no
// color. No-op before Init.
func LogNoFormat(text string) {
	if c := Default(); c != nil {
		c.LogNoFormat(text)
	}
}

// InputAvailable reports whether a buffered input line is ready. False
// before Init.
func InputAvailable() bool {
	c := Default()
	return c != nil && c.InputAvailable()
}

// GetInput pops the oldest buffered input line without blocking.
func GetInput() (line string, ok bool) {
	c := Default()
	if c == nil {
		return "", false
	}
	return c.GetInput()
}

// WaitForInput blocks until a new input line arrives on the process-wide
// Console.
func WaitForInput(ctx context.Context) (string, error) {
	c := Default()
	if c == nil {
		return "", ErrNotRunning
	}
	return c.WaitForInput(ctx)
}

// PromptPressEnterToContinue logs the prompt and waits for the next input
// line on the process-wide Console.
func PromptPressEnterToContinue(ctx context.Context) error {
	c := Default()
	if c == nil {
		return ErrNotRunning
	}
	return c.PromptPressEnterToContinue(ctx)
}

// Stats returns sink statistics from the process-wide Console, or nil
// before Init.
func Stats() []SinkStat {
	c := Default()
	if c == nil {
		return nil
	}
	return c.Stats()
}
