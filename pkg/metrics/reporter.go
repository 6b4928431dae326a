package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"vawter.tech/stopper"

	"github.com/marmos91/sidekick/internal/logger"
)

// Reporter is the in-process metrics reporter. It is started synchronously
// before any side-car, so an inconsistent registry aborts startup instead of
// surfacing later as a broken scrape.
type Reporter struct {
	gatherer prometheus.Gatherer
	cfg      ReporterConfig

	mu   sync.Mutex
	sctx *stopper.Context
}

// NewReporter creates a reporter over gatherer.
func NewReporter(gatherer prometheus.Gatherer, cfg ReporterConfig) *Reporter {
	return &Reporter{gatherer: gatherer, cfg: cfg}
}

// Start validates the registry and writes the first snapshot. When a textfile
// path and an interval are configured, a refresh loop keeps running until
// Stop.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sctx != nil {
		return fmt.Errorf("reporter already started")
	}

	if err := r.report(); err != nil {
		return err
	}

	sctx := stopper.WithContext(context.WithoutCancel(ctx))
	r.sctx = sctx
	if r.cfg.TextfilePath == "" || r.cfg.Interval <= 0 {
		return nil
	}

	sctx.Go(func(sctx *stopper.Context) error {
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-sctx.Stopping():
				return nil
			case <-ticker.C:
				if err := r.report(); err != nil {
					logger.Warn("Local metrics report failed", logger.Err(err))
				}
			}
		}
	})
	return nil
}

// Stop ends the refresh loop and writes a final snapshot. Stopping a
// reporter that was never started is a no-op.
func (r *Reporter) Stop(ctx context.Context) error {
	r.mu.Lock()
	sctx := r.sctx
	r.sctx = nil
	r.mu.Unlock()
	if sctx == nil {
		return nil
	}

	sctx.Stop(time.Second)
	done := make(chan error, 1)
	go func() { done <- sctx.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("reporter loop: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	return r.report()
}

// report gathers the registry and, if configured, writes the text exposition.
func (r *Reporter) report() error {
	mfs, err := r.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	logger.Debug("Gathered metric families", logger.KeyCount, len(mfs))

	if r.cfg.TextfilePath == "" {
		return nil
	}

	f, err := renameio.NewPendingFile(r.cfg.TextfilePath, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create textfile %q: %w", r.cfg.TextfilePath, err)
	}
	defer func() { _ = f.Cleanup() }()

	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace textfile %q: %w", r.cfg.TextfilePath, err)
	}
	return nil
}
