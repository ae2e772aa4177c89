// Package database provides SQLite connectivity to the gateway settings database.
//
// The gateway owns the database and its schema. An add-on reads and writes
// only its own row in the settings table (see internal/settings). When the
// file does not exist yet, Open creates the settings table so local runs and
// tests work without a gateway.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: path, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
package database
