package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/service"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/models"
)

// ── fakeOrchestrator ─────────────────────────────────────────────────────────

type fakeOrchestrator struct {
	service.SyncOrchestrator

	mu        sync.Mutex
	status    models.SyncStatus
	forced    int
	decisions []models.ConflictDecision
	ctxErrs   []error
}

func (f *fakeOrchestrator) ForceSync(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced++
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.status = models.SyncingStatus("Checking devices")
}

func (f *fakeOrchestrator) ResolveConflict(ctx context.Context, decision models.ConflictDecision) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions = append(f.decisions, decision)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.status = models.SyncingStatus("Downloading")
}

func (f *fakeOrchestrator) Status() models.SyncStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// ── fakeHistory ──────────────────────────────────────────────────────────────

type fakeHistory struct {
	service.SyncHistory

	entries   []models.SyncHistoryEntry
	err       error
	lastLimit int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]models.SyncHistoryEntry, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

var errHistoryBroken = errors.New("history table is gone")

// ── test handler ─────────────────────────────────────────────────────────────

var testEpoch = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

const (
	protocolID = "5d1f3c8e-2b7a-4c1d-9e8f-1a2b3c4d5e6f"
	stepID     = "0b9f1c52-8a1e-4f57-9d0e-7c0f3a9b5e11"
)

type testEnv struct {
	handler      *Handler
	router       http.Handler
	orchestrator *fakeOrchestrator
	history      *fakeHistory
	storages     *store.ClientStorages
}

func newTestHandler() *Handler {
	return &Handler{logger: logger.Nop()}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.NewConnectSQLite(context.Background(), config.ClientDB{DSN: ":memory:"}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	storages := store.NewClientStoragesFromDB(db)

	env := &testEnv{
		orchestrator: &fakeOrchestrator{status: models.IdleStatus()},
		history:      &fakeHistory{},
		storages:     storages,
	}
	env.handler = NewHandler(&service.ClientServices{
		Orchestrator:  env.orchestrator,
		History:       env.history,
		RecordService: service.NewRecordService(storages, time.Hour),
	}, logger.Nop())
	env.router = env.handler.Init()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}
