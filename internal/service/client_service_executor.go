// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/models"
)

// BackgroundFunc is a unit of sync work run by [BackgroundExecutor]. Writes
// made through tx are durable once tx.Save returns nil.
type BackgroundFunc func(ctx context.Context, tx store.Transaction) error

// sessionTx is the transaction owned by the executor. *store.Session
// implements it.
type sessionTx interface {
	store.Transaction
	Rollback() error
}

type executorJob struct {
	ctx    context.Context
	fn     BackgroundFunc
	result chan error
}

// BackgroundExecutor is the single serialized access point to the local store
// during sync. One goroutine owns the session and runs submitted work one
// unit at a time.
type BackgroundExecutor struct {
	tx     sessionTx
	jobs   chan executorJob
	done   chan struct{}
	exited chan struct{}

	closeOnce sync.Once
	logger    *logger.Logger
}

// NewBackgroundExecutor starts the worker goroutine on a session of
// storages. Call Close to stop it.
func NewBackgroundExecutor(storages *store.ClientStorages, log *logger.Logger) *BackgroundExecutor {
	return newBackgroundExecutor(storages.NewSession(), log)
}

func newBackgroundExecutor(tx sessionTx, log *logger.Logger) *BackgroundExecutor {
	e := &BackgroundExecutor{
		tx:     tx,
		jobs:   make(chan executorJob),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		logger: log,
	}
	go e.loop()
	return e
}

// Perform runs fn on the worker and waits for it. Changes fn left unsaved are
// committed when it returns nil and rolled back otherwise. A panic inside fn
// is returned as an error wrapping [ErrPanic].
func (e *BackgroundExecutor) Perform(ctx context.Context, fn BackgroundFunc) error {
	job := executorJob{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case e.jobs <- job:
	case <-e.done:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-job.result
}

// Close stops accepting work and waits for the running unit to finish.
func (e *BackgroundExecutor) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
	<-e.exited
}

func (e *BackgroundExecutor) loop() {
	defer close(e.exited)

	for {
		select {
		case <-e.done:
			return
		case job := <-e.jobs:
			job.result <- e.run(job)
		}
	}
}

func (e *BackgroundExecutor) run(job executorJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("func", "BackgroundExecutor.run").
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("background work panicked")
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}

		if err != nil {
			if rbErr := e.tx.Rollback(); rbErr != nil {
				e.logger.Err(rbErr).Str("func", "BackgroundExecutor.run").Msg("rollback failed")
			}
			return
		}

		if saveErr := e.tx.Save(job.ctx); saveErr != nil {
			err = fmt.Errorf("%w: %w", models.ErrSaveFailure, saveErr)
			_ = e.tx.Rollback()
		}
	}()

	return job.fn(job.ctx, e.tx)
}
