// Package config loads the termio configuration file.
//
// Configuration is a single YAML file describing console coloring and the
// log files to register at startup:
//
//	color: auto          # auto, always, or never
//	sinks:
//	  - path: logs/app   # .log is appended when missing
//	    overwrite: false # append (default) or truncate on open
//	    announce: true   # log a line when the sink joins or leaves
//
// A missing file is not an error: Load returns the defaults so programs
// run unconfigured. Malformed or contradictory files fail loudly instead,
// with the offending field named in the error.
package config
