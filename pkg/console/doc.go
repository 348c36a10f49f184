// Package console provides a process-wide asynchronous logging and
// terminal-input facility with multi-file mirroring.
//
// Log calls never block on I/O: they enqueue entries into an unbounded
// queue that a dedicated background worker drains, formats, and fans out
// to the console and to every registered log file. A second background
// worker reads lines from the input source into an unbounded buffer that
// callers poll or wait on.
//
// # Architecture
//
// The facility is built around these components:
//
// ## Console
// The explicit instance owning all state: the log queue, the input buffer,
// the sink registry, and the lifecycle of both background workers. Programs
// that want process-wide behavior use the package-level functions, which
// share a single default Console; tests construct isolated instances with
// New.
//
// ## Severities
//   - **Info**: general messages, green tag on the console
//   - **Warning**: potential issues, yellow tag
//   - **Error**: failures, red tag
//   - **Ignore**: verbatim passthrough, no timestamp, no tag, no color
//
// Tagged entries render as `[<timestamp>] [<TAG>]   <text>` with fixed-width
// tag segments so message columns align across severities. The timestamp is
// taken when the drain worker writes the entry, not when it was enqueued.
//
// ## Sinks
// Log files registered at runtime. Every formatted entry is mirrored
// line-for-line to every sink; a session banner is written when a sink
// joins. Registration appends the .log extension when missing and is
// idempotent per normalized path.
//
// # Usage
//
//	if err := console.Init(); err != nil {
//		return err
//	}
//	defer console.Close()
//
//	if err := console.RegisterOutputFile("run", console.WithOverwrite()); err != nil {
//		return err
//	}
//
//	console.Log("starting up")
//	console.LogWarningf("disk usage at %d%%", 91)
//	console.LogNoFormat("raw line, no decoration")
//
//	console.PromptPressEnterToContinue(ctx)
//
// # Shutdown
//
// Close cancels both workers, waits for the drain worker to exit, performs
// one final full drain so every entry enqueued before Close is written,
// and only then closes the registered files. An interrupt signal triggers
// the same flush automatically before the process dies of the signal.
package console
