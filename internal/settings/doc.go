// Package settings stores an add-on's configuration in the gateway's
// SQLite settings database.
//
// The gateway owns the database and creates one row per installed
// package; the add-on only reads and rewrites its own configuration
// inside that row.
package settings
