// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/MKhiriev/go-protocol-sync/internal/adapter"
	"github.com/MKhiriev/go-protocol-sync/internal/app"
	"github.com/MKhiriev/go-protocol-sync/internal/auth"
	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/internal/utils"
	"github.com/MKhiriev/go-protocol-sync/internal/validators"
	"github.com/MKhiriev/go-protocol-sync/models"
)

const (
	defaultForegroundThrottle = 5 * time.Minute
	defaultSuccessHold        = 3 * time.Second
	subscriberBuffer          = 16
)

// pendingConflict is what a parked attempt needs to continue once the user
// has decided.
type pendingConflict struct {
	folder models.RemoteFolder
	device models.DeviceDescriptor
}

type syncOrchestrator struct {
	tokens     auth.Provider
	identity   DeviceIdentity
	remote     adapter.RemoteStore
	executor   *BackgroundExecutor
	reconciler *reconciler
	pusher     *pusher
	cfg        config.ClientWorkers
	uuid       *utils.UUIDGenerator
	now        func() time.Time
	logger     *logger.Logger

	mu          sync.Mutex
	status      models.SyncStatus
	running     bool
	conflict    *pendingConflict
	generation  uint64
	subscribers map[uint64]chan models.SyncStatus
	nextSubID   uint64

	wg sync.WaitGroup
}

// NewSyncOrchestrator wires the sync state machine. All local store access
// of an attempt goes through executor.
func NewSyncOrchestrator(
	executor *BackgroundExecutor,
	remote adapter.RemoteStore,
	tokens auth.Provider,
	identity DeviceIdentity,
	cfg config.ClientWorkers,
	log *logger.Logger,
) SyncOrchestrator {
	if cfg.ForegroundThrottle <= 0 {
		cfg.ForegroundThrottle = defaultForegroundThrottle
	}
	if cfg.SuccessHold <= 0 {
		cfg.SuccessHold = defaultSuccessHold
	}

	o := &syncOrchestrator{
		tokens:      tokens,
		identity:    identity,
		remote:      remote,
		executor:    executor,
		reconciler:  newReconciler(remote, validators.NewRecordValidator()),
		cfg:         cfg,
		uuid:        utils.NewUUIDGenerator(),
		now:         time.Now,
		logger:      log,
		status:      models.IdleStatus(),
		subscribers: make(map[uint64]chan models.SyncStatus),
	}
	o.pusher = newPusher(remote, func() time.Time { return o.now() })
	return o
}

// ── Public surface ───────────────────────────────────────────────────────────

func (o *syncOrchestrator) TriggerSync(ctx context.Context, trigger models.SyncTrigger) {
	if !o.tokens.IsSignedIn(ctx) {
		o.logger.Debug().Str("trigger", trigger.String()).Msg("not signed in, sync skipped")
		return
	}
	if !o.acquire() {
		o.logger.Debug().Str("trigger", trigger.String()).Msg("sync in flight, trigger dropped")
		return
	}

	go o.attempt(ctx, trigger)
}

func (o *syncOrchestrator) ForceSync(ctx context.Context) {
	o.TriggerSync(ctx, models.TriggerForced)
}

func (o *syncOrchestrator) ResolveConflict(ctx context.Context, decision models.ConflictDecision) {
	o.mu.Lock()
	pending := o.conflict
	if pending == nil || o.running || o.status.Kind != models.StatusAwaitingUserDecision {
		o.mu.Unlock()
		o.logger.Debug().Str("decision", decision.String()).Msg("no conflict awaiting a decision")
		return
	}
	o.conflict = nil
	o.running = true
	o.wg.Add(1)
	o.mu.Unlock()

	go o.resolve(ctx, decision, *pending)
}

func (o *syncOrchestrator) Status() models.SyncStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *syncOrchestrator) Subscribe() (<-chan models.SyncStatus, func()) {
	ch := make(chan models.SyncStatus, subscriberBuffer)

	o.mu.Lock()
	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = ch
	o.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subscribers, id)
			close(ch)
			o.mu.Unlock()
		})
	}
}

func (o *syncOrchestrator) Wait() {
	o.wg.Wait()
}

// ── Attempts ─────────────────────────────────────────────────────────────────

// acquire is the single-flight guard. Setting running is the first mutation
// of a new attempt.
func (o *syncOrchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running || o.status.InFlight() {
		return false
	}
	o.running = true
	o.wg.Add(1)
	return true
}

func (o *syncOrchestrator) attempt(ctx context.Context, trigger models.SyncTrigger) {
	defer o.wg.Done()

	ctx, log := o.attemptContext(ctx, trigger.String())
	started := o.now()
	defer o.recoverPanic(ctx, models.ActionSync, started)

	device, err := o.identity.Descriptor(ctx)
	if err != nil {
		o.fail(ctx, models.ActionSync, started, 0, 0, fmt.Errorf("%w: %w", ErrDeviceIdentity, err))
		return
	}
	if device.IsDisposable {
		log.Warn().Str("device_type", device.Type).Msg("disposable environment, sync blocked")
		o.settle(models.SyncStatus{Kind: models.StatusEnvironmentBlocked, Message: app.MsgEnvironmentBlocked})
		return
	}

	allowed, err := o.checkThrottle(ctx, trigger)
	if err != nil {
		o.fail(ctx, models.ActionSync, started, 0, 0, err)
		return
	}
	if !allowed {
		log.Debug().Msg("foreground sync throttled")
		o.release()
		return
	}

	log.Info().Str("device_id", device.ID).Msg("sync started")
	o.setStatus(models.SyncingStatus(app.MsgCheckingDevices))

	folder, err := o.remote.EnsureRootReady(ctx)
	if err != nil {
		o.fail(ctx, models.ActionSync, started, 0, 0, fmt.Errorf("%w: %w", ErrRemoteSetup, err))
		return
	}

	registry, err := o.remote.FetchDeviceRegistry(ctx, folder)
	if err != nil {
		o.fail(ctx, models.ActionSync, started, 0, 0, fmt.Errorf("%w: %w", ErrRegistryUnavailable, err))
		return
	}

	info, err := o.detectConflict(ctx, registry, device)
	if err != nil {
		o.fail(ctx, models.ActionSync, started, 0, 0, err)
		return
	}
	if info != nil {
		log.Info().Str("other_device", info.OtherDeviceName).Msg("device conflict detected")
		o.park(pendingConflict{folder: folder, device: device}, info)
		return
	}

	downloaded, err := o.pull(ctx, folder)
	if err != nil {
		o.fail(ctx, models.ActionSync, started, downloaded, 0, err)
		return
	}

	uploaded, err := o.push(ctx, folder)
	if err != nil {
		o.fail(ctx, models.ActionSync, started, downloaded, uploaded, err)
		return
	}

	o.finish(ctx, models.ActionSync, started, folder, device, downloaded, uploaded)
}

func (o *syncOrchestrator) resolve(ctx context.Context, decision models.ConflictDecision, pending pendingConflict) {
	defer o.wg.Done()

	ctx, log := o.attemptContext(ctx, "resolve")
	log.Info().Str("decision", decision.String()).Msg("resolving device conflict")
	started := o.now()
	defer o.recoverPanic(ctx, resolveAction(decision), started)

	switch decision {
	case models.DecisionUseLocal:
		o.setStatus(models.SyncingStatus(app.MsgPreparingUpload))
		if err := o.enqueueAll(ctx); err != nil {
			o.fail(ctx, models.ActionResolveUseLocal, started, 0, 0, err)
			return
		}

		uploaded, err := o.push(ctx, pending.folder)
		if err != nil {
			o.fail(ctx, models.ActionResolveUseLocal, started, 0, uploaded, err)
			return
		}
		o.finish(ctx, models.ActionResolveUseLocal, started, pending.folder, pending.device, 0, uploaded)

	case models.DecisionUseRemote:
		downloaded, err := o.pull(ctx, pending.folder)
		if err != nil {
			o.fail(ctx, models.ActionResolveUseRemote, started, downloaded, 0, err)
			return
		}
		o.finish(ctx, models.ActionResolveUseRemote, started, pending.folder, pending.device, downloaded, 0)

	default:
		o.appendHistory(ctx, models.SyncHistoryEntry{
			Action:     models.ActionResolveCancel,
			Result:     models.ResultCancelled,
			DurationMs: o.now().Sub(started).Milliseconds(),
		})
		o.settle(models.IdleStatus())
	}
}

func resolveAction(decision models.ConflictDecision) models.SyncAction {
	switch decision {
	case models.DecisionUseLocal:
		return models.ActionResolveUseLocal
	case models.DecisionUseRemote:
		return models.ActionResolveUseRemote
	default:
		return models.ActionResolveCancel
	}
}

// ── Phases ───────────────────────────────────────────────────────────────────

// checkThrottle applies the foreground throttle. A forced sync clears the
// timestamp instead; background syncs are never throttled.
func (o *syncOrchestrator) checkThrottle(ctx context.Context, trigger models.SyncTrigger) (bool, error) {
	allowed := true

	err := o.executor.Perform(ctx, func(ctx context.Context, tx store.Transaction) error {
		switch trigger {
		case models.TriggerForced:
			return tx.Settings().Delete(ctx, store.SettingLastForegroundSync)
		case models.TriggerBackground:
			return nil
		}

		now := o.now()
		last, ok, err := tx.Settings().GetTime(ctx, store.SettingLastForegroundSync)
		if err != nil {
			return err
		}
		if ok && now.Sub(last) < o.cfg.ForegroundThrottle {
			allowed = false
			return nil
		}
		return tx.Settings().SetTime(ctx, store.SettingLastForegroundSync, now)
	})
	if err != nil {
		return false, fmt.Errorf("%w: throttle: %w", ErrLocalRead, err)
	}
	return allowed, nil
}

// detectConflict returns nil when the registry is empty or already lists
// this device, or when every other device is a simulator.
func (o *syncOrchestrator) detectConflict(ctx context.Context, registry models.DeviceRegistryDocument, device models.DeviceDescriptor) (*models.SyncConflictInfo, error) {
	if registry.IsEmpty() || registry.Contains(device.ID) {
		return nil, nil
	}

	other, ok := registry.LastOtherDevice(device.ID)
	if !ok {
		return nil, nil
	}

	var count int
	err := o.executor.Perform(ctx, func(ctx context.Context, tx store.Transaction) error {
		var err error
		count, err = tx.Records().Count(ctx, store.RecordFilter{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: count records: %w", ErrLocalRead, err)
	}

	return &models.SyncConflictInfo{
		OtherDeviceName:     other.DeviceName,
		OtherDeviceLastSync: other.LastSyncDate,
		LocalRecordCount:    count,
		OtherIsSimulator:    other.IsSimulator,
	}, nil
}

func (o *syncOrchestrator) pull(ctx context.Context, folder models.RemoteFolder) (int, error) {
	o.setStatus(models.SyncingStatus(app.MsgDownloading))

	var downloaded int
	err := o.executor.Perform(ctx, func(ctx context.Context, tx store.Transaction) error {
		var err error
		downloaded, err = o.reconciler.Pull(ctx, tx, folder)
		return err
	})
	return downloaded, err
}

func (o *syncOrchestrator) push(ctx context.Context, folder models.RemoteFolder) (int, error) {
	o.setStatus(models.SyncingStatus(app.MsgUploading))

	var uploaded int
	err := o.executor.Perform(ctx, func(ctx context.Context, tx store.Transaction) error {
		var err error
		queue := newSessionQueue(tx, o.cfg.RecentActivityWindow, o.now)
		uploaded, err = o.pusher.Push(ctx, tx, queue, folder)
		return err
	})
	return uploaded, err
}

func (o *syncOrchestrator) enqueueAll(ctx context.Context) error {
	return o.executor.Perform(ctx, func(ctx context.Context, tx store.Transaction) error {
		queue := newSessionQueue(tx, o.cfg.RecentActivityWindow, o.now)
		n, err := queue.EnqueueAllExisting(ctx, tx.Records())
		logger.FromContext(ctx).Info().Int("queued", n).Msg("local records queued for upload")
		return err
	})
}

// registerDevice re-reads the registry right before writing it so that
// updates by other devices during this attempt are kept.
func (o *syncOrchestrator) registerDevice(ctx context.Context, folder models.RemoteFolder, device models.DeviceDescriptor) error {
	doc, err := o.remote.FetchDeviceRegistry(ctx, folder)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}

	doc.RegisterDevice(device, o.now())
	if err = o.remote.UpdateDeviceRegistry(ctx, folder, doc); err != nil {
		return fmt.Errorf("%w: %w", ErrRegistryUnavailable, err)
	}
	return nil
}

// finish registers the device, writes the success entry and settles the
// status.
func (o *syncOrchestrator) finish(
	ctx context.Context,
	action models.SyncAction,
	started time.Time,
	folder models.RemoteFolder,
	device models.DeviceDescriptor,
	downloaded, uploaded int,
) {
	if err := o.registerDevice(ctx, folder, device); err != nil {
		o.fail(ctx, action, started, downloaded, uploaded, err)
		return
	}

	finished := o.now()
	entry := newHistoryEntry(action, started, finished, downloaded, uploaded, nil)
	err := o.executor.Perform(context.WithoutCancel(ctx), func(ctx context.Context, tx store.Transaction) error {
		if err := newSyncHistory(tx.History(), o.cfg.HistoryLimit, o.now).Append(ctx, entry); err != nil {
			return err
		}
		return tx.Settings().SetTime(ctx, store.SettingLastSuccessfulSync, finished)
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("failed to record successful sync")
	}

	logger.FromContext(ctx).Info().
		Int("downloaded", downloaded).
		Int("uploaded", uploaded).
		Int64("duration_ms", entry.DurationMs).
		Msg("sync finished")
	o.succeed(successMessage(downloaded, uploaded))
}

func (o *syncOrchestrator) fail(ctx context.Context, action models.SyncAction, started time.Time, downloaded, uploaded int, err error) {
	entry := newHistoryEntry(action, started, o.now(), downloaded, uploaded, err)
	logger.FromContext(ctx).Err(err).Str("code", *entry.ErrorCode).Msg("sync failed")

	o.appendHistory(ctx, entry)
	o.settle(models.FailedStatus(app.MsgSyncFailed))
}

// recoverPanic must be deferred directly by the attempt goroutine.
func (o *syncOrchestrator) recoverPanic(ctx context.Context, action models.SyncAction, started time.Time) {
	if r := recover(); r != nil {
		logger.FromContext(ctx).Error().
			Interface("panic", r).
			Bytes("stack", debug.Stack()).
			Msg("sync panicked")
		o.fail(ctx, action, started, 0, 0, fmt.Errorf("%w: %v", ErrPanic, r))
	}
}

func (o *syncOrchestrator) appendHistory(ctx context.Context, entry models.SyncHistoryEntry) {
	err := o.executor.Perform(context.WithoutCancel(ctx), func(ctx context.Context, tx store.Transaction) error {
		return newSyncHistory(tx.History(), o.cfg.HistoryLimit, o.now).Append(ctx, entry)
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("failed to write sync history")
	}
}

func (o *syncOrchestrator) attemptContext(ctx context.Context, trigger string) (context.Context, *logger.Logger) {
	attemptID := o.uuid.Generate()
	log := o.logger.ForAttempt(attemptID, trigger)
	ctx = log.WithContext(utils.WithAttemptID(ctx, attemptID))
	return ctx, log
}

func successMessage(downloaded, uploaded int) string {
	if downloaded == 0 && uploaded == 0 {
		return app.MsgUpToDate
	}
	return fmt.Sprintf(app.MsgSyncedFormat, downloaded, uploaded)
}

// ── State ────────────────────────────────────────────────────────────────────

func (o *syncOrchestrator) setStatus(status models.SyncStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.publishLocked(status)
}

// settle publishes a final status of the attempt and releases the
// single-flight guard.
func (o *syncOrchestrator) settle(status models.SyncStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
	o.publishLocked(status)
}

func (o *syncOrchestrator) release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
}

func (o *syncOrchestrator) park(pending pendingConflict, info *models.SyncConflictInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.conflict = &pending
	o.running = false
	o.publishLocked(models.SyncStatus{Kind: models.StatusConflictDetected, Message: app.MsgOtherDeviceFound, Conflict: info})
	o.publishLocked(models.SyncStatus{Kind: models.StatusAwaitingUserDecision, Message: app.MsgOtherDeviceFound, Conflict: info})
}

// succeed publishes Success and reverts to Idle after the hold unless
// another status was published meanwhile.
func (o *syncOrchestrator) succeed(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.running = false
	o.publishLocked(models.SuccessStatus(msg))
	gen := o.generation

	time.AfterFunc(o.cfg.SuccessHold, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.generation == gen {
			o.publishLocked(models.IdleStatus())
		}
	})
}

func (o *syncOrchestrator) publishLocked(status models.SyncStatus) {
	o.status = status
	o.generation++

	for _, ch := range o.subscribers {
		select {
		case ch <- status:
		default:
			// drop the oldest update so the latest state always arrives
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- status:
			default:
			}
		}
	}
}
