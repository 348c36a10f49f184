package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"termio/internal/config"
	"termio/internal/reconcile"
	"termio/pkg/console"
)

// serveConfigPath points at the YAML configuration file. The file may be
// absent; serve then runs with the defaults.
var serveConfigPath string

// serveWatch keeps the configuration file under observation and
// reconciles the sink set on every change.
var serveWatch bool

// serveCmd defines the serve command structure.
// This is the long-running mode of termio: a console session that logs
// typed input and mirrors everything into the configured log files.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a logging session until interrupted",
	Long: `Starts a console session driven by the termio configuration file.

Sinks listed in the configuration are registered at startup. Every line
typed on standard input becomes an INFO entry, so the session doubles as
an interactive note-taker: whatever you type lands in the console and in
every registered log file.

With --watch, the configuration file is reloaded whenever it changes and
sinks are registered or unregistered to match; sinks keep their session
banner and append across reloads.

The session ends on Ctrl+C, SIGTERM, or end of input, flushing every
queued entry before exit.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, found, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	// serve owns the shutdown sequence below, so the console's own
	// interrupt handling stays off.
	c := console.New(append(cfg.ConsoleOptions(),
		console.WithOutput(cmd.OutOrStdout()),
		console.WithInput(cmd.InOrStdin()),
		console.WithoutSignalHandling(),
	)...)
	if err := c.Start(); err != nil {
		return fmt.Errorf("starting console: %w", err)
	}

	if serveWatch {
		// The watcher reloads the file itself and reports what it finds,
		// including the missing-file fallback.
		w := reconcile.NewWatcher(c, serveConfigPath)
		if err := w.Start(ctx); err != nil {
			c.Stop()
			return err
		}
		defer w.Stop()
	} else {
		if !found {
			c.Logf("No config file found at %s, using defaults", serveConfigPath)
		}
		if err := reconcile.Apply(c, cfg.Sinks); err != nil {
			c.Stop()
			return err
		}
	}

	c.Log("Session started. Press Ctrl+C to flush and exit.")

	echoDone := make(chan struct{})
	go func() {
		defer close(echoDone)
		forwardInput(ctx, c, func(line string) { c.Logf("> %s", line) })
	}()

	// Wait for an interrupt to gracefully shut down. A piped session is
	// over when its input ends instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case <-ctx.Done():
	case <-echoDone:
	}

	c.Log("--- Shutting down session ---")
	err = c.Stop()
	<-echoDone
	return err
}

// init registers the serve command and its flags with the root command.
func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigPath, "config", config.DefaultFileName, "Path to the termio configuration file")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload the configuration file on change")
}
