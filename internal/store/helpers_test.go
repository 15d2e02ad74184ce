// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/models"
)

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

// newTestStorages opens a migrated in-memory database.
func newTestStorages(t *testing.T) *ClientStorages {
	t.Helper()
	db, err := NewConnectSQLite(testContext(), config.ClientDB{DSN: ":memory:"}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return NewClientStoragesFromDB(db)
}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &DB{DB: db, logger: logger.Nop()}, mock
}

func strPtr(s string) *string { return &s }

var testEpoch = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestRecord(entityType models.EntityType, syncID string) *models.Record {
	return &models.Record{
		SyncID:       syncID,
		EntityType:   entityType,
		CreatedAt:    testEpoch,
		LastModified: testEpoch.Add(time.Minute),
		Fields: map[string]json.RawMessage{
			"title": json.RawMessage(`"Morning routine"`),
		},
		Relations: map[string]*string{},
	}
}

func sqlmockResult() driver.Result {
	return sqlmock.NewResult(1, 1)
}
