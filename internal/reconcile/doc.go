// Package reconcile keeps a console's log sinks in step with the termio
// configuration file.
//
// Apply registers a loaded sink list once. Watcher goes further: it
// watches the configuration file with fsnotify, debounces the event
// bursts that saving a file produces, and registers or unregisters sinks
// as the file changes. Sinks registered programmatically are never
// touched; the watcher only manages what it registered itself.
package reconcile
