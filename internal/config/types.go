package config

import (
	"termio/pkg/console"
)

// ColorMode selects how the console decides whether to color output.
type ColorMode string

const (
	// ColorAuto colors output only when it goes to a terminal.
	ColorAuto ColorMode = "auto"
	// ColorAlways colors output unconditionally.
	ColorAlways ColorMode = "always"
	// ColorNever disables coloring.
	ColorNever ColorMode = "never"
)

// Config is the top-level configuration structure for termio.
type Config struct {
	Color ColorMode    `yaml:"color,omitempty"` // Console coloring mode (default: auto)
	Sinks []SinkConfig `yaml:"sinks,omitempty"` // Log files to register at startup
}

// SinkConfig describes one log file to register.
type SinkConfig struct {
	Path      string `yaml:"path"`                // File path; .log is appended when missing
	Overwrite bool   `yaml:"overwrite,omitempty"` // Truncate on open instead of appending
	Announce  bool   `yaml:"announce,omitempty"`  // Log a line when the sink joins or leaves
}

// Options converts the sink entry into registration options.
func (s SinkConfig) Options() []console.FileOption {
	var opts []console.FileOption
	if s.Overwrite {
		opts = append(opts, console.WithOverwrite())
	}
	if s.Announce {
		opts = append(opts, console.WithAnnounce())
	}
	return opts
}

// ConsoleOptions converts the configuration into console construction
// options. ColorAuto contributes nothing so the console falls back to its
// own terminal detection.
func (c Config) ConsoleOptions() []console.Option {
	var opts []console.Option
	switch c.Color {
	case ColorAlways:
		opts = append(opts, console.WithColor(true))
	case ColorNever:
		opts = append(opts, console.WithColor(false))
	}
	return opts
}
