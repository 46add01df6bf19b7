package service

import (
	"context"
	"time"

	"settlement-service/internal/usecase"

	"github.com/sirupsen/logrus"
)

const defaultSweepBatch = 100

// ReleaseWorker periodically sweeps scheduled escrow holds whose release
// date has arrived and pays them out. Failed holds stay failed for operator
// reconciliation; the worker never retries them.
type ReleaseWorker struct {
	escrowUC *usecase.EscrowUsecase
	interval time.Duration
	batch    int
}

func NewReleaseWorker(escrowUC *usecase.EscrowUsecase, interval time.Duration) *ReleaseWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReleaseWorker{
		escrowUC: escrowUC,
		interval: interval,
		batch:    defaultSweepBatch,
	}
}

// Run blocks until ctx is cancelled.
func (w *ReleaseWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval).Info("escrow release worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("escrow release worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ReleaseWorker) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	released, err := w.escrowUC.ProcessDueReleases(sweepCtx, w.batch)
	if err != nil {
		logrus.WithError(err).Error("escrow release sweep failed")
		return
	}
	if released > 0 {
		logrus.WithField("released", released).Info("escrow release sweep completed")
	}
}
