package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"termio/pkg/console"
)

// pipeLevel selects the severity for forwarded lines. "raw" forwards
// lines verbatim, with no timestamp or tag.
var pipeLevel string

// pipeFiles lists log files that receive the forwarded lines alongside
// the console.
var pipeFiles []string

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Forward standard input lines into the log",
	Long: `Reads standard input line by line and emits each line as a log entry,
fanned out to the console and every --file sink. The command exits once
the input ends, after flushing everything:

  tail -f app.out | termio pipe --level warning --file ops`,
	Args: cobra.NoArgs,
	RunE: runPipe,
}

func runPipe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c := console.New(
		console.WithOutput(cmd.OutOrStdout()),
		console.WithInput(cmd.InOrStdin()),
	)

	var emit func(string)
	switch pipeLevel {
	case "info":
		emit = c.Log
	case "warning":
		emit = c.LogWarning
	case "error":
		emit = c.LogError
	case "raw":
		emit = c.LogNoFormat
	default:
		return fmt.Errorf("unknown level %q: want info, warning, error, or raw", pipeLevel)
	}

	if err := c.Start(); err != nil {
		return fmt.Errorf("starting console: %w", err)
	}

	for _, path := range pipeFiles {
		if err := c.RegisterOutputFile(path); err != nil {
			c.Stop()
			return err
		}
	}

	forwardInput(ctx, c, emit)
	return c.Stop()
}

// forwardInput emits buffered and future input lines as entries until the
// input source ends or ctx is canceled. Lines that arrive between the
// last pop and the close are drained before returning.
func forwardInput(ctx context.Context, c *console.Console, emit func(string)) {
	for {
		line, ok := c.GetInput()
		if !ok {
			var err error
			line, err = c.WaitForInput(ctx)
			if err != nil {
				break
			}
		}
		emit(line)
	}

	for {
		line, ok := c.GetInput()
		if !ok {
			return
		}
		emit(line)
	}
}

func init() {
	rootCmd.AddCommand(pipeCmd)

	pipeCmd.Flags().StringVar(&pipeLevel, "level", "info", "Severity for forwarded lines: info, warning, error, or raw")
	pipeCmd.Flags().StringArrayVar(&pipeFiles, "file", nil, "Log file to register before forwarding (repeatable)")
}
