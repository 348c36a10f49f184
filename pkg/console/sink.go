package console

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// FileOption adjusts how RegisterOutputFile and UnregisterOutputFile treat
// a sink.
type FileOption func(*fileOptions)

type fileOptions struct {
	overwrite bool
	announce  bool
}

// WithOverwrite truncates the file on registration instead of appending.
func WithOverwrite() FileOption {
	return func(o *fileOptions) { o.overwrite = true }
}

// WithAnnounce logs an INFO line when the sink is registered or
// unregistered.
func WithAnnounce() FileOption {
	return func(o *fileOptions) { o.announce = true }
}

func applyFileOptions(opts []FileOption) fileOptions {
	var o fileOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SinkStat describes one registered sink.
type SinkStat struct {
	// Path is the normalized file path the sink writes to.
	Path string
	// Entries is the number of log lines written so far.
	Entries uint64
	// Bytes is the number of bytes written, banner included.
	Bytes uint64
	// Since is when the sink joined the session.
	Since time.Time
}

// sink is one registered log file. The drain worker is the only writer of
// log lines; counters are atomic so Stats can be read concurrently.
type sink struct {
	path    string
	file    *os.File
	opened  time.Time
	entries atomic.Uint64
	bytes   atomic.Uint64
}

// write appends one formatted line. Partial-write bytes still count toward
// the byte total.
func (s *sink) write(line string) error {
	n, err := s.file.WriteString(line)
	s.bytes.Add(uint64(n))
	if err != nil {
		return fmt.Errorf("writing to log file %s: %w", s.path, err)
	}
	s.entries.Add(1)
	return nil
}

// normalizeSinkPath appends the .log extension when missing and cleans the
// path. Registration and unregistration key sinks by this form.
func normalizeSinkPath(path string) string {
	if !strings.HasSuffix(path, ".log") {
		path += ".log"
	}
	return filepath.Clean(path)
}

// SinkPath returns the registry key RegisterOutputFile derives from path:
// the cleaned path with a .log extension appended when missing. Callers
// that diff or deduplicate sink sets should compare paths in this form.
func SinkPath(path string) string {
	return normalizeSinkPath(path)
}

// sinkRegistry owns the set of registered log files. One lock covers
// registration, unregistration, and the per-entry fan-out, so a sink can
// never close in the middle of a write.
type sinkRegistry struct {
	mu    sync.Mutex
	sinks map[string]*sink
}

func newSinkRegistry() *sinkRegistry {
	return &sinkRegistry{sinks: make(map[string]*sink)}
}

// register opens a sink for the normalized path and writes the session
// banner. Registering a path that already has a live sink is a no-op;
// added reports whether a new sink was created. Open and banner-write
// failures propagate to the caller and leave the registry unchanged.
func (r *sinkRegistry) register(path string, start, now time.Time, overwrite bool) (key string, added bool, err error) {
	key = normalizeSinkPath(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sinks[key]; ok {
		return key, false, nil
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if overwrite {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(key, flags, 0644)
	if err != nil {
		return key, false, fmt.Errorf("opening log file %s: %w", key, err)
	}

	s := &sink{path: key, file: f, opened: now}
	n, err := f.WriteString(sessionBanner(start, now))
	if err != nil {
		f.Close()
		return key, false, fmt.Errorf("writing session banner to %s: %w", key, err)
	}
	s.bytes.Add(uint64(n))

	r.sinks[key] = s
	return key, true, nil
}

// unregister closes and removes the sink for the normalized path. Unknown
// paths are a no-op; removed reports whether a sink existed.
func (r *sinkRegistry) unregister(path string) (key string, removed bool, err error) {
	key = normalizeSinkPath(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sinks[key]
	if !ok {
		return key, false, nil
	}
	delete(r.sinks, key)
	if err := s.file.Close(); err != nil {
		return key, true, fmt.Errorf("closing log file %s: %w", key, err)
	}
	return key, true, nil
}

// unregisterAll closes and removes every sink, collecting close errors.
func (r *sinkRegistry) unregisterAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for key, s := range r.sinks {
		if err := s.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing log file %s: %w", key, err))
		}
		delete(r.sinks, key)
	}
	return errors.Join(errs...)
}

// writeAll fans one formatted line out to every sink. Writes for one entry
// run concurrently across sinks; the registry lock is held until all of
// them finish, which both keeps per-sink ordering (the caller processes
// entries one at a time) and prevents unregister from closing a file
// mid-write.
func (r *sinkRegistry) writeAll(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sinks) == 0 {
		return nil
	}
	var g errgroup.Group
	for _, s := range r.sinks {
		g.Go(func() error {
			return s.write(line)
		})
	}
	return g.Wait()
}

// stats returns a snapshot of every sink, sorted by path.
func (r *sinkRegistry) stats() []SinkStat {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SinkStat, 0, len(r.sinks))
	for _, s := range r.sinks {
		out = append(out, SinkStat{
			Path:    s.path,
			Entries: s.entries.Load(),
			Bytes:   s.bytes.Load(),
			Since:   s.opened,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// paths returns the normalized paths of every registered sink, sorted.
func (r *sinkRegistry) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.sinks))
	for key := range r.sinks {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func (r *sinkRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sinks)
}
