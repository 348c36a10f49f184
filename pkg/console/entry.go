package console

import (
	"time"
)

// Severity classifies a log entry and selects its tag and console color.
type Severity int

const (
	// SeverityIgnore writes the entry text verbatim: no timestamp, no tag,
	// no color.
	SeverityIgnore Severity = iota
	// SeverityInfo is the default severity for informational messages.
	SeverityInfo
	// SeverityWarning marks potential issues.
	SeverityWarning
	// SeverityError marks failures.
	SeverityError
)

// timeLayout is the stamp format used for entry prefixes and session
// banners.
const timeLayout = "2006/01/02 15:04:05"

// Tag segments are all the same width so message columns align across
// severities.
const (
	tagInfo    = " [INFO]     "
	tagWarning = " [WARNING]  "
	tagError   = " [ERROR]    "
)

// ANSI foreground sequences for console coloring.
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

// severityColors maps tagged severities to the ANSI sequence wrapped
// around the tag+message segment on the console. Ignore entries are never
// colored.
var severityColors = map[Severity]string{
	SeverityInfo:    ansiGreen,
	SeverityWarning: ansiYellow,
	SeverityError:   ansiRed,
}

// colorize wraps s in the color for severity and resets it within the same
// string, so an entry's color cannot leak past its own write.
func colorize(severity Severity, s string) string {
	color, ok := severityColors[severity]
	if !ok {
		return s
	}
	return color + s + ansiReset
}

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityIgnore:
		return "ignore"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// tag returns the fixed-width tag segment, empty for Ignore.
func (s Severity) tag() string {
	switch s {
	case SeverityInfo:
		return tagInfo
	case SeverityWarning:
		return tagWarning
	case SeverityError:
		return tagError
	default:
		return ""
	}
}

// Entry is one pending log line. Entries are immutable once enqueued.
// Time is stamped by the drain worker when the entry is written, so under
// load it may lag the moment of the log call; queue order is what is
// preserved.
type Entry struct {
	Time     time.Time
	Severity Severity
	Text     string
}

// render splits the formatted entry into the timestamp prefix and the
// tag+message tail. The console colors only the tail; sinks receive
// prefix+tail verbatim. Ignore entries have no prefix and an undecorated
// tail.
func (e Entry) render() (prefix, tail string) {
	if e.Severity == SeverityIgnore {
		return "", e.Text
	}
	return "[" + e.Time.Format(timeLayout) + "]", e.Severity.tag() + e.Text
}

// String returns the formatted line without the trailing newline.
func (e Entry) String() string {
	prefix, tail := e.render()
	return prefix + tail
}

// sessionBanner is the block written to the console at startup and to
// every sink when it joins the session.
func sessionBanner(start, now time.Time) string {
	return "\n    ---- Joined Session from [" + start.Format(timeLayout) +
		"] at [" + now.Format(timeLayout) + "] ----\n"
}

// sessionLine identifies the session below the console banner. Sinks do not
// get it; their banner keeps the original format.
func sessionLine(id string) string {
	return "    Session " + id + "\n"
}
