package workers

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
)

type Workers struct {
	workers []Worker
	logger  *logger.Logger
}

func NewWorkers(log *logger.Logger, workers ...Worker) *Workers {
	return &Workers{workers: workers, logger: log}
}

// Run starts every worker and blocks until all of them have returned. The
// first failure cancels the others and is returned.
func (w *Workers) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i, worker := range w.workers {
		i, worker := i, worker
		g.Go(func() error {
			if err := worker.Run(ctx); err != nil {
				if w.logger != nil {
					w.logger.Err(err).Int("worker", i).Msg("worker stopped with error")
				}
				return fmt.Errorf("worker %d: %w", i, err)
			}
			return nil
		})
	}

	return g.Wait()
}
