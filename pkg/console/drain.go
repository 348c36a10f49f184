package console

import (
	"context"
	"fmt"
	"io"
)

// drainLoop is the single consumer of the log queue. Each wake performs a
// full drain: every entry queued at that point is written before the loop
// blocks again, so flushing stays near-immediate without spinning on an
// empty queue.
func (c *Console) drainLoop(ctx context.Context) {
	defer close(c.drainDone)

	for {
		if !c.logQ.wait(ctx) {
			// Shutdown requested, or closed and empty. Entries that raced
			// past this point are written by the final drain in Stop.
			return
		}
		if err := c.drainAll(); err != nil {
			// The worker dies on a write failure and entries keep
			// queueing unconsumed. The cause stays queryable through
			// LastError; there is no automatic restart.
			c.fail(err)
			return
		}
	}
}

// drainAll writes every currently queued entry, oldest first, stopping at
// the first write failure.
func (c *Console) drainAll() error {
	for {
		e, ok := c.logQ.pop()
		if !ok {
			return nil
		}
		if err := c.writeEntry(e); err != nil {
			return err
		}
	}
}

// writeEntry stamps and formats one entry, then fans it out: console
// first, then every registered sink concurrently. All destinations receive
// identical bytes; color decorates only the console's tag+message segment
// and is reset within the same write, so one entry's color can never bleed
// into the next.
func (c *Console) writeEntry(e Entry) error {
	e.Time = c.now()
	prefix, tail := e.render()

	c.outMu.Lock()
	consoleTail := tail
	if c.color {
		consoleTail = colorize(e.Severity, tail)
	}
	_, err := io.WriteString(c.out, prefix+consoleTail+"\n")
	c.outMu.Unlock()
	if err != nil {
		return fmt.Errorf("writing to console: %w", err)
	}

	return c.registry.writeAll(prefix + tail + "\n")
}

// fail records the error that killed the drain worker.
func (c *Console) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	c.state = StateFailed
}
