package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"
)

// inputLoop reads lines from the configured source and buffers them until
// the program asks for them. Lines can be arbitrarily long; bufio.Scanner
// would refuse anything past its token limit, so the loop reads through a
// bufio.Reader instead. It exits when the source ends, on a read error, or
// once shutdown is requested. Read failures other than a clean EOF are
// logged unless shutdown caused them. The buffer closes when the loop
// exits so blocked waiters are released rather than left hanging on input
// that can never arrive.
func (c *Console) inputLoop(ctx context.Context) {
	defer close(c.inputDone)
	defer c.inputQ.close()

	reader := bufio.NewReader(c.in)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			select {
			case <-ctx.Done():
				return
			default:
			}
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			c.inputQ.push(line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				c.LogErrorf("Input read error: %v", err)
			}
			return
		}
	}
}

// unblockInput nudges a read blocked on a file-backed source by expiring
// its deadline. Sources without deadline support keep the documented
// shutdown latency of one pending read.
func (c *Console) unblockInput() {
	if f, ok := c.in.(*os.File); ok {
		_ = f.SetReadDeadline(time.Now())
	}
}

// InputAvailable reports whether at least one buffered line is ready to
// pop. It never blocks.
func (c *Console) InputAvailable() bool {
	return c.inputQ.len() > 0
}

// GetInput pops the oldest buffered line without blocking. ok is false
// when the buffer is empty.
func (c *Console) GetInput() (line string, ok bool) {
	return c.inputQ.pop()
}

// WaitForInput blocks until a line is pushed after the call begins, then
// pops and returns the oldest buffered line. Input already buffered when
// the call starts does not satisfy the wait; only a subsequent push does.
// Racing a concurrent GetInput cannot deadlock the wait: if the popped
// line is stolen, the wait resumes until another line is available.
//
// It returns ctx's error on cancellation and ErrClosed once the console
// shuts down or the input source ends.
func (c *Console) WaitForInput(ctx context.Context) (string, error) {
	since := c.inputQ.pushCount()
	if !c.inputQ.waitPush(ctx, since) {
		return "", c.waitErr(ctx)
	}
	for {
		if line, ok := c.inputQ.pop(); ok {
			return line, nil
		}
		if !c.inputQ.wait(ctx) {
			return "", c.waitErr(ctx)
		}
	}
}

func (c *Console) waitErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrClosed
}

// PromptPressEnterToContinue logs the prompt line and blocks until the
// next input line arrives; the line itself is discarded. Any input counts
// as pressing enter.
func (c *Console) PromptPressEnterToContinue(ctx context.Context) error {
	c.Log("Press ENTER to continue...")
	_, err := c.WaitForInput(ctx)
	return err
}
