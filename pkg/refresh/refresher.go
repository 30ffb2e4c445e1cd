// Package refresh drives the periodic background replacement of the dataset
// snapshot. A failed cycle is logged and the prior snapshot stays committed;
// readers never notice.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/asnlab/asninfo/pkg/asinfo"
	"github.com/asnlab/asninfo/pkg/config"
	"github.com/asnlab/asninfo/pkg/metrics"
	"github.com/asnlab/asninfo/pkg/provider"
)

// maxFetchRetries bounds the per-cycle retry budget. Retries live here, not in
// the provider.
const maxFetchRetries = 3

// Refresher periodically fetches a fresh snapshot and commits it to the store.
type Refresher struct {
	provider provider.Provider
	store    *asinfo.Store
	mode     asinfo.Mode
	interval time.Duration
	logger   *zap.Logger
	inst     *metrics.Instrumentation

	// newBackOff builds the per-cycle retry policy.
	newBackOff func() backoff.BackOff
}

// New builds a refresher. The interval is floor-clamped to
// config.MinRefreshInterval seconds before the timer is ever armed.
func New(p provider.Provider, store *asinfo.Store, mode asinfo.Mode, interval time.Duration, logger *zap.Logger, inst *metrics.Instrumentation) *Refresher {
	if interval < config.MinRefreshInterval*time.Second {
		interval = config.MinRefreshInterval * time.Second
	}
	return &Refresher{
		provider: p,
		store:    store,
		mode:     mode,
		interval: interval,
		logger:   logger,
		inst:     inst,
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries)
		},
	}
}

// Interval returns the effective (clamped) refresh period.
func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Bootstrap performs the blocking cold-start fetch. Serving must not begin
// without a committed snapshot, so a failure here is returned to the caller
// and is fatal.
func (r *Refresher) Bootstrap(ctx context.Context) error {
	start := time.Now()
	snap, err := r.provider.Fetch(ctx, r.mode)
	if err != nil {
		r.observe(metrics.Failure, start)
		return fmt.Errorf("initial dataset fetch failed: %w", err)
	}
	r.commit(snap, start)
	r.logger.Info("initial dataset loaded",
		zap.Int("records", snap.Len()),
		zap.String("mode", string(r.mode)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Run loops on the refresh timer until the context is canceled. Cycle
// failures are logged and swallowed; the loop itself never stops early.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("background refresher started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("background refresher stopped")
			return nil
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// refresh runs one cycle: fetch with bounded retries, then commit. On
// exhausted failure the prior snapshot stays in place.
func (r *Refresher) refresh(ctx context.Context) {
	r.logger.Info("refreshing ASN dataset")
	start := time.Now()

	var snap *asinfo.Snapshot
	operation := func() error {
		fetched, err := r.provider.Fetch(ctx, r.mode)
		if err != nil {
			r.logger.Warn("dataset fetch attempt failed", zap.Error(err))
			return err
		}
		snap = fetched
		return nil
	}

	policy := backoff.WithContext(r.newBackOff(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		r.observe(metrics.Failure, start)
		r.logger.Error("dataset refresh failed, keeping previous snapshot", zap.Error(err))
		return
	}

	r.commit(snap, start)
	r.logger.Info("ASN dataset refreshed",
		zap.Int("records", snap.Len()),
		zap.Duration("took", time.Since(start)),
	)
}

func (r *Refresher) commit(snap *asinfo.Snapshot, start time.Time) {
	r.store.Replace(snap)
	r.observe(metrics.Success, start)
	if r.inst != nil {
		r.inst.SetSnapshot(snap.Len(), snap.UpdatedAt())
	}
}

func (r *Refresher) observe(result string, start time.Time) {
	if r.inst != nil {
		r.inst.ObserveRefresh(result, time.Since(start))
	}
}
