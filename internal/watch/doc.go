// Package watch converts ROM files dropped into an inbox directory.
//
// Filesystem events are debounced per path so a file still being copied is
// not picked up half-written. Ready files are converted one at a time
// through a single pipeline.Orchestrator. A ROM whose digest was already
// converted during this run, or that history reports as converted, is
// skipped.
package watch
