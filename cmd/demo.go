package cmd

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"termio/pkg/console"
)

// demoLogFile is the log file the demo session mirrors into. Empty
// disables the file sink.
var demoLogFile string

// demoNoInput skips the interactive prompt at the end of the demo, for
// scripted runs.
var demoNoInput bool

// demoEntries is how many numbered entries the burst phase generates.
var demoEntries int

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a short scripted logging session",
	Long: `Runs a scripted session against the process-wide console: severity
showcase, a burst of entries draining in the background, an interactive
prompt, and a closing table of per-file statistics.

The session mirrors into --log-file, so the file can be compared against
the terminal output afterwards.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := console.Init(
		console.WithOutput(cmd.OutOrStdout()),
		console.WithInput(cmd.InOrStdin()),
	); err != nil {
		return err
	}
	defer console.Close()

	if demoLogFile != "" {
		if err := console.RegisterOutputFile(demoLogFile, console.WithOverwrite(), console.WithAnnounce()); err != nil {
			return err
		}
	}

	console.Log("The console is up; entries drain in the background")
	console.LogWarning("Warnings stand out on terminals")
	console.LogError("Errors too, without stopping anything")
	console.LogNoFormat("raw lines pass through untouched")

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " Generating entries..."
	s.Start()
	for i := 1; i <= demoEntries; i++ {
		console.Logf("entry %d of %d", i, demoEntries)
		time.Sleep(20 * time.Millisecond)
	}
	s.Stop()

	if !demoNoInput {
		// A closed input source is fine; the prompt just does not wait.
		if err := console.PromptPressEnterToContinue(ctx); err != nil && !errors.Is(err, console.ErrClosed) {
			return err
		}
	}

	// Close flushes the queue and finalizes the per-sink counters; Stats
	// then reports the whole session.
	if err := console.Close(); err != nil {
		return err
	}

	renderStats(cmd.OutOrStdout(), console.Stats())
	return nil
}

// renderStats prints the per-sink statistics table after the session has
// flushed and closed.
func renderStats(out io.Writer, stats []console.SinkStat) {
	if len(stats) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("LOG FILE"),
		text.FgHiCyan.Sprint("ENTRIES"),
		text.FgHiCyan.Sprint("BYTES"),
		text.FgHiCyan.Sprint("SINCE"),
	})
	for _, st := range stats {
		t.AppendRow(table.Row{st.Path, st.Entries, st.Bytes, st.Since.Format("15:04:05")})
	}
	t.Render()
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringVar(&demoLogFile, "log-file", "demo-session", "Log file the session mirrors into (empty disables)")
	demoCmd.Flags().BoolVar(&demoNoInput, "no-input", false, "Skip the interactive prompt")
	demoCmd.Flags().IntVar(&demoEntries, "entries", 12, "Number of entries the burst phase generates")
}
