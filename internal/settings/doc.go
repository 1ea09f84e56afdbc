// Package settings persists the user-editable configuration of the search
// daemon: the watched directories and the ignore patterns.
//
// A setting is declared with [Store.Register], which stores its default on
// first use and subscribes a change callback. [Store.Set] persists a new
// value and then invokes every callback registered for that name. Values
// are stored as JSON.
//
// Two implementations exist. [SQLiteStore] keeps settings in a single
// SQLite table in WAL mode; [MemoryStore] keeps them in a map and is used
// by tests and the one-shot CLI.
package settings
