package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-protocol-sync/models"
)

const defaultSyncInterval = 15 * time.Minute

type syncJob struct {
	orchestrator SyncOrchestrator
	interval     time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a syncJob that triggers a background sync on a ticker.
// The job is idle until Start or Run is called.
func NewSyncJob(orchestrator SyncOrchestrator, interval time.Duration) SyncJob {
	return &syncJob{orchestrator: orchestrator, interval: interval}
}

// Start implements SyncJob. It stops any previously running job, then
// launches a background goroutine that triggers a sync every interval. If
// interval is zero or negative it defaults to 15 minutes. The goroutine exits
// when ctx is cancelled or Stop is called.
func (j *syncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.orchestrator.TriggerSync(jobCtx, models.TriggerBackground)
			}
		}
	}()
}

// Stop implements SyncJob. It cancels the background goroutine's context and
// blocks until the goroutine has fully exited. Safe to call when the job is not
// running (no-op in that case).
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// Run implements SyncJob and workers.Worker.
func (j *syncJob) Run(ctx context.Context) error {
	j.Start(ctx, j.interval)
	<-ctx.Done()
	j.Stop()
	return nil
}
