// Package history persists a record of every conversion run in SQLite.
//
// Each run is written once, when the pipeline reaches a terminal state, and
// captures what was converted (ROM path, digest, catalog title), how it ended
// (status, failure kind, message) and what it produced. The CLI history
// command and the watcher's duplicate check read from the same table.
//
// The schema is embedded and versioned; a version mismatch is reported rather
// than migrated because the table is an audit log that can be recreated.
package history
