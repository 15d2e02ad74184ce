package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-protocol-sync/models"
)

// spyOrchestrator records triggers and ignores everything else.
type spyOrchestrator struct {
	SyncOrchestrator

	mu       sync.Mutex
	triggers []models.SyncTrigger
}

func (s *spyOrchestrator) TriggerSync(_ context.Context, trigger models.SyncTrigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, trigger)
}

func (s *spyOrchestrator) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

func TestSyncJob_TriggersBackgroundSyncs(t *testing.T) {
	spy := &spyOrchestrator{}
	job := NewSyncJob(spy, time.Hour)

	job.Start(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return spy.count() >= 2 }, time.Second, 5*time.Millisecond)
	job.Stop()

	stopped := spy.count()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, stopped, spy.count(), "no triggers after Stop")

	spy.mu.Lock()
	defer spy.mu.Unlock()
	for _, trig := range spy.triggers {
		assert.Equal(t, models.TriggerBackground, trig)
	}
}

func TestSyncJob_RestartReplacesTicker(t *testing.T) {
	spy := &spyOrchestrator{}
	job := NewSyncJob(spy, time.Hour)

	job.Start(context.Background(), time.Hour)
	job.Start(context.Background(), 10*time.Millisecond)
	defer job.Stop()

	require.Eventually(t, func() bool { return spy.count() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestSyncJob_StopIdle(t *testing.T) {
	job := NewSyncJob(&spyOrchestrator{}, time.Hour)
	job.Stop()
	job.Stop()
}

func TestSyncJob_DefaultInterval(t *testing.T) {
	spy := &spyOrchestrator{}
	job := NewSyncJob(spy, 0)

	job.Start(context.Background(), 0)
	defer job.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, spy.count())
}

func TestSyncJob_RunReturnsOnCancel(t *testing.T) {
	spy := &spyOrchestrator{}
	job := NewSyncJob(spy, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- job.Run(ctx) }()

	require.Eventually(t, func() bool { return spy.count() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
