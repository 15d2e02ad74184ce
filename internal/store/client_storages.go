package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
)

// ClientStorages groups the local repositories bound to the shared pool.
// Interactive code uses them directly; background sync work goes through a
// [Session] obtained from NewSession.
type ClientStorages struct {
	DB *DB

	Records        RecordRepository
	PendingChanges PendingChangeRepository
	History        HistoryRepository
	Settings       SettingsRepository
}

// NewClientStorages opens the SQLite database named by cfg.DB.DSN, creating
// the file if needed, runs pending migrations and wires the repositories.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, log *logger.Logger) (*ClientStorages, error) {
	log.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return NewClientStoragesFromDB(db), nil
}

// NewClientStoragesFromDB wires repositories on an already migrated db.
func NewClientStoragesFromDB(db *DB) *ClientStorages {
	return &ClientStorages{
		DB:             db,
		Records:        NewRecordRepository(db),
		PendingChanges: NewPendingChangeRepository(db),
		History:        NewHistoryRepository(db),
		Settings:       NewSettingsRepository(db),
	}
}

// NewSession starts a transactional view for background work.
func (s *ClientStorages) NewSession() *Session {
	return NewSession(s.DB)
}

// Close releases the database.
func (s *ClientStorages) Close() error {
	return s.DB.Close()
}
