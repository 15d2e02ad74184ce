package store

import (
	"database/sql"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/migrations"
)

// DB is the local SQLite handle shared by all repositories.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate() error {
	if err := migrations.Migrate(db.DB); err != nil {
		return err
	}
	if db.logger != nil {
		db.logger.Debug().Str("func", "DB.Migrate").Msg("local schema is up to date")
	}
	return nil
}
