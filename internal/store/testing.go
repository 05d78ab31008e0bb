package store

import (
	"database/sql"
	"fmt"
)

// OpenMemory opens a migrated in-memory database.
// This is only intended for use in tests.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Each pooled connection would get its own empty :memory: database
	sqlDB.SetMaxOpenConns(1)
	return setup(sqlDB)
}
