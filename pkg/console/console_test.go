package console

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a goroutine-safe bytes.Buffer for tests that inspect
// console output while the drain worker is still running.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// flakyWriter succeeds for a fixed number of writes, then refuses.
type flakyWriter struct {
	mu    sync.Mutex
	allow int
}

func (w *flakyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.allow > 0 {
		w.allow--
		return len(p), nil
	}
	return 0, errors.New("console write refused")
}

// newTestConsole builds a Console wired for tests: buffered output, empty
// input, a fixed clock, and no signal handling.
func newTestConsole(t *testing.T, opts ...Option) (*Console, *syncBuffer) {
	t.Helper()
	buf := &syncBuffer{}
	base := []Option{
		WithOutput(buf),
		WithInput(strings.NewReader("")),
		WithoutSignalHandling(),
		WithClock(func() time.Time { return testStamp }),
	}
	c := New(append(base, opts...)...)
	t.Cleanup(func() { c.Stop() })
	return c, buf
}

func TestStartStopLifecycle(t *testing.T) {
	c, buf := newTestConsole(t)

	assert.Equal(t, StateStopped, c.State())

	require.NoError(t, c.Start())
	assert.Equal(t, StateRunning, c.State())
	assert.Contains(t, buf.String(), "---- Joined Session from [2024/03/05 14:30:09] at [2024/03/05 14:30:09] ----",
		"startup must write the session banner to the console")

	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())
}

func TestStartTwiceFails(t *testing.T) {
	c, _ := newTestConsole(t)

	require.NoError(t, c.Start())
	assert.ErrorIs(t, c.Start(), ErrAlreadyRunning)
}

func TestStartAfterStopFails(t *testing.T) {
	c, _ := newTestConsole(t)

	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())

	// An instance runs one session; a fresh one is a New away.
	assert.ErrorIs(t, c.Start(), ErrClosed)
}

func TestStopIdempotent(t *testing.T) {
	c, _ := newTestConsole(t)

	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())
}

func TestStopWithoutStart(t *testing.T) {
	c, _ := newTestConsole(t)
	assert.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())
}

func TestConcurrentStopDoesNotDeadlock(t *testing.T) {
	c, _ := newTestConsole(t)
	require.NoError(t, c.Start())

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Stop())
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent Stop calls did not finish")
	}
	assert.Equal(t, StateStopped, c.State())
}

func TestLogBeforeStartDrainsAfterStart(t *testing.T) {
	c, buf := newTestConsole(t)

	c.Log("queued early")
	assert.NotContains(t, buf.String(), "queued early")

	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())

	assert.Contains(t, buf.String(), "[INFO]     queued early")
}

func TestStopFlushesEverythingEnqueuedBefore(t *testing.T) {
	c, buf := newTestConsole(t)
	require.NoError(t, c.Start())

	const n = 100
	for i := range n {
		c.Logf("entry %03d", i)
	}
	require.NoError(t, c.Stop())

	out := buf.String()
	for i := range n {
		assert.Contains(t, out, fmt.Sprintf("entry %03d", i))
	}
	assert.Equal(t, 0, c.logQ.len(), "queue must be empty after Stop")
}

func TestSeverityTagsAndOrderInSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ordered.log")

	c, _ := newTestConsole(t)
	require.NoError(t, c.RegisterOutputFile(path))
	require.NoError(t, c.Start())

	c.Log("first")
	c.LogWarning("second")
	c.LogError("third")
	c.LogNoFormat("fourth raw")
	require.NoError(t, c.Stop())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	last4 := lines[len(lines)-4:]

	assert.Equal(t, "[2024/03/05 14:30:09] [INFO]     first", last4[0])
	assert.Equal(t, "[2024/03/05 14:30:09] [WARNING]  second", last4[1])
	assert.Equal(t, "[2024/03/05 14:30:09] [ERROR]    third", last4[2])
	assert.Equal(t, "fourth raw", last4[3])
}

func TestConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "race.log")

	c, _ := newTestConsole(t)
	require.NoError(t, c.RegisterOutputFile(path))
	require.NoError(t, c.Start())

	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				c.Logf("p%d seq %03d", p, i)
			}
		}()
	}
	wg.Wait()
	require.NoError(t, c.Stop())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	// Enqueue order is the only ordering guarantee; per producer that
	// means strictly increasing sequence numbers.
	seen := make(map[int]int)
	total := 0
	for _, line := range strings.Split(string(content), "\n") {
		idx := strings.Index(line, "p")
		if idx < 0 || !strings.Contains(line, " seq ") {
			continue
		}
		var p, seq int
		_, err := fmt.Sscanf(line[idx:], "p%d seq %d", &p, &seq)
		require.NoError(t, err, "unparseable line %q", line)
		require.Equal(t, seen[p], seq, "producer %d out of order", p)
		seen[p]++
		total++
	}
	assert.Equal(t, producers*perProducer, total)
}

func TestRegisterBeforeStartReceivesEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "early.log")

	c, _ := newTestConsole(t)
	require.NoError(t, c.RegisterOutputFile(path))

	c.Log("before start")
	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Joined Session")
	assert.Contains(t, string(content), "[INFO]     before start")
}

func TestRegisterAnnounceReachesNewSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.log")

	c, buf := newTestConsole(t)
	require.NoError(t, c.Start())
	require.NoError(t, c.RegisterOutputFile(path, WithAnnounce()))
	require.NoError(t, c.Stop())

	assert.Contains(t, buf.String(), "Registered output file "+path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Registered output file "+path,
		"the sink joins before the announce line is drained, so it receives it")
}

func TestUnregisterAnnounceMissesDepartingSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bye.log")

	c, buf := newTestConsole(t)
	require.NoError(t, c.RegisterOutputFile(path))
	require.NoError(t, c.Start())

	require.NoError(t, c.UnregisterOutputFile(path, WithAnnounce()))
	require.NoError(t, c.Stop())

	assert.Contains(t, buf.String(), "Unregistered output file "+path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "Unregistered output file",
		"the announce line is asynchronous and the sink is already gone")
}

func TestUnregisteredSinkStopsReceiving(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.log")

	c, _ := newTestConsole(t)
	require.NoError(t, c.RegisterOutputFile(path))
	require.NoError(t, c.Start())

	require.NoError(t, c.UnregisterOutputFile(path))
	c.Log("after unregister")
	require.NoError(t, c.Stop())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "after unregister")
}

func TestUnregisterAllOutputFiles(t *testing.T) {
	dir := t.TempDir()

	c, _ := newTestConsole(t)
	require.NoError(t, c.RegisterOutputFile(filepath.Join(dir, "a")))
	require.NoError(t, c.RegisterOutputFile(filepath.Join(dir, "b")))
	require.Len(t, c.SinkPaths(), 2)

	require.NoError(t, c.UnregisterAllOutputFiles())
	assert.Empty(t, c.SinkPaths())
}

func TestSessionIdentity(t *testing.T) {
	c, _ := newTestConsole(t)

	assert.Equal(t, testStamp, c.SessionStart())
	_, err := uuid.Parse(c.SessionID())
	assert.NoError(t, err, "session ID must be a valid UUID")

	other := New(WithOutput(&syncBuffer{}), WithInput(strings.NewReader("")), WithoutSignalHandling())
	assert.NotEqual(t, c.SessionID(), other.SessionID())
}

func TestStartLogsSessionIDOnConsoleOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")

	c, buf := newTestConsole(t)
	require.NoError(t, c.RegisterOutputFile(path))
	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())

	assert.Contains(t, buf.String(), "Session "+c.SessionID())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Joined Session")
	assert.NotContains(t, string(data), c.SessionID(), "sinks keep the original banner")
}

func TestStatsReflectWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.log")

	c, _ := newTestConsole(t)
	require.NoError(t, c.RegisterOutputFile(path))
	require.NoError(t, c.Start())

	c.Log("one")
	c.Log("two")

	// Wait for the drain worker to process both entries before reading
	// the live snapshot.
	require.Eventually(t, func() bool {
		stats := c.Stats()
		return len(stats) == 1 && stats[0].Entries == 2
	}, 2*time.Second, 10*time.Millisecond)

	stats := c.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, path, stats[0].Path)
	assert.Equal(t, uint64(2), stats[0].Entries)
	assert.Greater(t, stats[0].Bytes, uint64(0))

	c.Log("three")
	require.NoError(t, c.Stop())

	final := c.Stats()
	require.Len(t, final, 1, "Stats keeps the final snapshot after Stop")
	assert.Equal(t, uint64(3), final[0].Entries, "the final drain is counted")
}

func TestColorAutoDisabledForNonTerminalOutput(t *testing.T) {
	c, _ := newTestConsole(t)
	assert.False(t, c.color, "buffers are not terminals")

	forced := New(WithOutput(&syncBuffer{}), WithInput(strings.NewReader("")),
		WithoutSignalHandling(), WithColor(true))
	assert.True(t, forced.color)
}

func TestStartStopWithSignalHandlingInstalled(t *testing.T) {
	// Exercises handler install and teardown; no signal is raised.
	buf := &syncBuffer{}
	c := New(WithOutput(buf), WithInput(strings.NewReader("")),
		WithClock(func() time.Time { return testStamp }))

	require.NoError(t, c.Start())
	require.NotNil(t, c.sigCh)
	require.NoError(t, c.Stop())
}

func TestEntryCountMatchesAcrossConsoleAndSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mirror.log")

	c, buf := newTestConsole(t)
	require.NoError(t, c.RegisterOutputFile(path))
	require.NoError(t, c.Start())

	const n = 25
	for i := range n {
		c.Log("mirror " + strconv.Itoa(i))
	}
	require.NoError(t, c.Stop())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, n, strings.Count(buf.String(), "mirror "))
	assert.Equal(t, n, strings.Count(string(content), "mirror "),
		"file content mirrors console content line-for-line")
}
