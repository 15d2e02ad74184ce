package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
)

// Session is a [Transaction] over a single lazily started SQL transaction.
// The first repository call begins it, Save commits it and the next call
// begins a fresh one. A Session must be used by one goroutine at a time.
type Session struct {
	db *DB
	tx *sql.Tx

	records        RecordRepository
	pendingChanges PendingChangeRepository
	history        HistoryRepository
	settings       SettingsRepository
}

// NewSession returns a session on db. No transaction is started yet.
func NewSession(db *DB) *Session {
	s := &Session{db: db}
	s.records = NewRecordRepository(s)
	s.pendingChanges = NewPendingChangeRepository(s)
	s.history = NewHistoryRepository(s)
	s.settings = NewSettingsRepository(s)
	return s
}

func (s *Session) Records() RecordRepository { return s.records }

func (s *Session) PendingChanges() PendingChangeRepository { return s.pendingChanges }

func (s *Session) History() HistoryRepository { return s.history }

func (s *Session) Settings() SettingsRepository { return s.settings }

// Active reports whether a transaction is open.
func (s *Session) Active() bool {
	return s.tx != nil
}

// begin opens the transaction on first use. Its lifetime is bounded by
// Save and Rollback rather than by ctx.
func (s *Session) begin(ctx context.Context) (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}

	tx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	s.tx = tx
	return tx, nil
}

// ExecContext implements dbtx inside the session transaction.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx.ExecContext(ctx, query, args...)
}

// QueryContext implements dbtx inside the session transaction.
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx.QueryContext(ctx, query, args...)
}

// Save commits the open transaction. It is a no-op when nothing was
// touched since the previous Save.
func (s *Session) Save(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}

	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "Session.Save").Msg("failed to commit session")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}

// Rollback discards everything written since the previous Save.
func (s *Session) Rollback() error {
	if s.tx == nil {
		return nil
	}

	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback session: %w", err)
	}
	return nil
}
