package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"termio/internal/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigInvalid indicates the configuration file failed validation.
	ExitCodeConfigInvalid = 2
)

// rootCmd represents the base command for the termio application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "termio",
	Short: "Asynchronous console logging with file mirroring",
	Long: `termio writes timestamped, severity-tagged log entries to the terminal
and mirrors them into any number of log files, without ever blocking the
code that logs. Lines typed while a session runs are buffered and can be
forwarded as entries or consumed by prompts.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles subcommands and flags.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "termio version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		return ExitCodeConfigInvalid
	}

	var verr config.ValidationError
	if errors.As(err, &verr) {
		return ExitCodeConfigInvalid
	}

	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
