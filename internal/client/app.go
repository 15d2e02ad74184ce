package client

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/service"
	"github.com/MKhiriev/go-protocol-sync/internal/workers"
	"github.com/MKhiriev/go-protocol-sync/models"
)

type App struct {
	services *service.ClientServices
	jobs     []workers.Worker
	closers  []io.Closer
	logger   *logger.Logger
}

// NewApp builds the daemon. closers are closed in order after the services
// have stopped.
func NewApp(services *service.ClientServices, log *logger.Logger, closers ...io.Closer) *App {
	return &App{
		services: services,
		jobs:     []workers.Worker{services.SyncJob},
		closers:  closers,
		logger:   log,
	}
}

// AddWorker registers a long-running worker, such as the control server,
// that runs next to the sync job. It must be called before Run.
func (a *App) AddWorker(w workers.Worker) {
	a.jobs = append(a.jobs, w)
}

func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	force := make(chan os.Signal, 1)
	signal.Notify(force, syscall.SIGUSR1)
	defer signal.Stop(force)

	return a.run(ctx, force)
}

func (a *App) run(ctx context.Context, force <-chan os.Signal) error {
	a.logger.Info().Msg("sync daemon started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return workers.NewWorkers(a.logger, a.jobs...).Run(ctx)
	})
	g.Go(func() error {
		a.logStatus(ctx)
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-force:
				a.logger.Info().Msg("forced sync requested")
				a.services.Orchestrator.ForceSync(ctx)
			}
		}
	})

	// the daemon coming up counts as the app entering the foreground
	a.services.Orchestrator.TriggerSync(ctx, models.TriggerForeground)

	err := g.Wait()
	a.shutdown()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.logger.Info().Msg("sync daemon stopped gracefully")
	return nil
}

// logStatus writes every status change to the log until ctx is done.
func (a *App) logStatus(ctx context.Context) {
	updates, unsubscribe := a.services.Orchestrator.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case status := <-updates:
			event := a.logger.Info()
			if status.Kind == models.StatusFailed {
				event = a.logger.Warn()
			}
			if status.Conflict != nil {
				event = event.
					Str("other_device", status.Conflict.OtherDeviceName).
					Int("local_records", status.Conflict.LocalRecordCount)
			}
			event.Str("status", status.Kind.String()).Msg(status.Message)
		}
	}
}

func (a *App) shutdown() {
	a.services.Close()

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Err(err).Str("func", "App.shutdown").Msg("failed to close resource")
		}
	}
}
