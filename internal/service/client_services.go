package service

import (
	"github.com/MKhiriev/go-protocol-sync/internal/adapter"
	"github.com/MKhiriev/go-protocol-sync/internal/auth"
	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
)

type ClientServices struct {
	Executor      *BackgroundExecutor
	Orchestrator  SyncOrchestrator
	RecordService RecordService
	History       SyncHistory
	Queue         PendingChangeQueue
	SyncJob       SyncJob
}

func NewClientServices(
	storages *store.ClientStorages,
	remote adapter.RemoteStore,
	tokens auth.Provider,
	identity DeviceIdentity,
	cfg config.ClientWorkers,
	log *logger.Logger,
) *ClientServices {
	executor := NewBackgroundExecutor(storages, log.GetChildLogger())
	orchestrator := NewSyncOrchestrator(executor, remote, tokens, identity, cfg, log.GetChildLogger())

	return &ClientServices{
		Executor:      executor,
		Orchestrator:  orchestrator,
		RecordService: NewRecordService(storages, cfg.RecentActivityWindow),
		History:       NewSyncHistory(storages.History, cfg.HistoryLimit),
		Queue:         NewPendingChangeQueue(storages.PendingChanges, cfg.RecentActivityWindow),
		SyncJob:       NewSyncJob(orchestrator, cfg.SyncInterval),
	}
}

// Close waits for running attempts and stops the executor.
func (s *ClientServices) Close() {
	s.Orchestrator.Wait()
	s.Executor.Close()
}
