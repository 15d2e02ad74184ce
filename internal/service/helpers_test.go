// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-protocol-sync/internal/adapter"
	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/mock"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/models"
)

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

// newTestStorages opens a migrated in-memory database.
func newTestStorages(t *testing.T) *store.ClientStorages {
	t.Helper()
	db, err := store.NewConnectSQLite(testContext(), config.ClientDB{DSN: ":memory:"}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return store.NewClientStoragesFromDB(db)
}

func newTestExecutor(t *testing.T, storages *store.ClientStorages) *BackgroundExecutor {
	t.Helper()
	e := NewBackgroundExecutor(storages, logger.Nop())
	t.Cleanup(e.Close)
	return e
}

func strPtr(s string) *string { return &s }

var testEpoch = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

// Stable sync IDs used across the tests.
const (
	protocolID   = "5d1f3c8e-2b7a-4c1d-9e8f-1a2b3c4d5e6f"
	stepID       = "0b9f1c52-8a1e-4f57-9d0e-7c0f3a9b5e11"
	occurrenceID = "7e0a1b2c-3d4e-4f50-8a9b-0c1d2e3f4a5b"
	noteID       = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

func newTestRecord(entityType models.EntityType, syncID string, modified time.Time) *models.Record {
	return &models.Record{
		SyncID:       syncID,
		EntityType:   entityType,
		CreatedAt:    testEpoch,
		LastModified: modified,
		Fields: map[string]json.RawMessage{
			"title": json.RawMessage(`"Morning routine"`),
		},
		Relations: map[string]*string{},
	}
}

func saveLocal(t *testing.T, storages *store.ClientStorages, records ...*models.Record) {
	t.Helper()
	for _, r := range records {
		require.NoError(t, storages.Records.Save(testContext(), r))
	}
}

func encodePayload(t *testing.T, r *models.Record) []byte {
	t.Helper()
	data, err := r.Serialize()
	require.NoError(t, err)
	return data
}

// ── stubIdentity ─────────────────────────────────────────────────────────────

type stubIdentity struct {
	device models.DeviceDescriptor
	err    error
}

func newStubIdentity(id, name string) *stubIdentity {
	return &stubIdentity{device: models.DeviceDescriptor{ID: id, Name: name, Type: "linux/ubuntu"}}
}

func (s *stubIdentity) CurrentDeviceID(context.Context) (string, error) {
	return s.device.ID, s.err
}

func (s *stubIdentity) Descriptor(context.Context) (models.DeviceDescriptor, error) {
	return s.device, s.err
}

// ── fakeRemote ───────────────────────────────────────────────────────────────

type fakeObject struct {
	id       string
	data     []byte
	modified time.Time
}

// fakeRemote is an in-memory RemoteStore shared by several simulated devices.
type fakeRemote struct {
	mu       sync.Mutex
	objects  map[string]*fakeObject
	registry []byte
	nextID   int
	now      func() time.Time

	uploadErr   map[string]error
	downloadErr map[string]error
	uploads     []string
	downloads   []string
}

var _ adapter.RemoteStore = (*fakeRemote)(nil)

var fakeFolder = models.RemoteFolder{ID: "records-folder", Name: adapter.RecordsFolderName}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		objects:     make(map[string]*fakeObject),
		uploadErr:   make(map[string]error),
		downloadErr: make(map[string]error),
		now:         time.Now,
	}
}

func (f *fakeRemote) EnsureRootReady(context.Context) (models.RemoteFolder, error) {
	return fakeFolder, nil
}

func (f *fakeRemote) ListRecords(_ context.Context, _ models.RemoteFolder) ([]models.RemoteFileRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	refs := make([]models.RemoteFileRef, 0, len(f.objects))
	for name, obj := range f.objects {
		ref, err := models.NewRemoteFileRef(obj.id, name, obj.modified)
		if err != nil {
			continue
		}
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (f *fakeRemote) Download(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.downloadErr[fileID]; err != nil {
		return nil, err
	}
	for _, obj := range f.objects {
		if obj.id == fileID {
			f.downloads = append(f.downloads, fileID)
			return append([]byte(nil), obj.data...), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", models.ErrNetworkFailure, adapter.ErrNotFound)
}

func (f *fakeRemote) Upload(_ context.Context, name string, data []byte, _ models.RemoteFolder) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.uploadErr[name]; err != nil {
		return time.Time{}, err
	}
	modified := f.now()
	f.put(name, data, modified)
	f.uploads = append(f.uploads, name)
	return modified, nil
}

func (f *fakeRemote) FetchDeviceRegistry(_ context.Context, _ models.RemoteFolder) (models.DeviceRegistryDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var doc models.DeviceRegistryDocument
	if f.registry == nil {
		return doc, nil
	}
	err := json.Unmarshal(f.registry, &doc)
	return doc, err
}

func (f *fakeRemote) UpdateDeviceRegistry(_ context.Context, _ models.RemoteFolder, doc models.DeviceRegistryDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.registry = data
	return nil
}

// put stores an object directly. Callers hold f.mu or own f exclusively.
func (f *fakeRemote) put(name string, data []byte, modified time.Time) {
	obj, ok := f.objects[name]
	if !ok {
		f.nextID++
		obj = &fakeObject{id: fmt.Sprintf("file-%d", f.nextID)}
		f.objects[name] = obj
	}
	obj.data = append([]byte(nil), data...)
	obj.modified = modified
}

func (f *fakeRemote) object(name string) (*fakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[name]
	return obj, ok
}

func (f *fakeRemote) setUploadErr(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadErr[name] = err
}

func (f *fakeRemote) downloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.downloads)
}

func (f *fakeRemote) registryDoc(t *testing.T) models.DeviceRegistryDocument {
	t.Helper()
	doc, err := f.FetchDeviceRegistry(testContext(), fakeFolder)
	require.NoError(t, err)
	return doc
}

// ── orchestrator fixtures ────────────────────────────────────────────────────

func testWorkersConfig() config.ClientWorkers {
	return config.ClientWorkers{
		SyncInterval:         time.Hour,
		ForegroundThrottle:   5 * time.Minute,
		SuccessHold:          time.Hour,
		HistoryLimit:         10,
		RecentActivityWindow: 24 * time.Hour,
	}
}

func signedIn(ctrl *gomock.Controller) *mock.MockProvider {
	tokens := mock.NewMockProvider(ctrl)
	tokens.EXPECT().IsSignedIn(gomock.Any()).Return(true).AnyTimes()
	return tokens
}

// testDevice bundles everything one simulated device needs.
type testDevice struct {
	storages     *store.ClientStorages
	orchestrator *syncOrchestrator
	records      RecordService
	history      SyncHistory
}

func newTestDevice(t *testing.T, ctrl *gomock.Controller, remote adapter.RemoteStore, identity DeviceIdentity, cfg config.ClientWorkers) *testDevice {
	t.Helper()
	storages := newTestStorages(t)
	executor := newTestExecutor(t, storages)
	o := NewSyncOrchestrator(executor, remote, signedIn(ctrl), identity, cfg, logger.Nop()).(*syncOrchestrator)
	t.Cleanup(o.Wait)

	return &testDevice{
		storages:     storages,
		orchestrator: o,
		records:      NewRecordService(storages, cfg.RecentActivityWindow),
		history:      NewSyncHistory(storages.History, cfg.HistoryLimit),
	}
}

// syncNow triggers a sync and waits for the attempt to finish.
func (d *testDevice) syncNow(trigger models.SyncTrigger) models.SyncStatus {
	d.orchestrator.TriggerSync(testContext(), trigger)
	d.orchestrator.Wait()
	return d.orchestrator.Status()
}

func (d *testDevice) resolve(decision models.ConflictDecision) models.SyncStatus {
	d.orchestrator.ResolveConflict(testContext(), decision)
	d.orchestrator.Wait()
	return d.orchestrator.Status()
}

func (d *testDevice) lastHistory(t *testing.T) models.SyncHistoryEntry {
	t.Helper()
	entries, err := d.history.Recent(testContext(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return entries[0]
}

func (d *testDevice) pending(t *testing.T) []models.PendingChangeItem {
	t.Helper()
	items, err := d.storages.PendingChanges.List(testContext())
	require.NoError(t, err)
	return items
}
