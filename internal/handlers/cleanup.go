package handlers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Purger removes stored documents created before cutoff.
type Purger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// RetentionService deletes generated documents once they are older than
// maxAge, checking every interval.
type RetentionService struct {
	purger   Purger
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRetentionService(purger Purger, maxAge, interval time.Duration, logger *zap.Logger) *RetentionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionService{
		purger:   purger,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

func (rs *RetentionService) Start(ctx context.Context) {
	ctx, rs.cancel = context.WithCancel(ctx)
	ticker := time.NewTicker(rs.interval)

	rs.wg.Add(1)
	go func() {
		defer rs.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rs.RunOnce(ctx)
			}
		}
	}()
	rs.logger.Info("document retention started",
		zap.Duration("max_age", rs.maxAge), zap.Duration("interval", rs.interval))
}

// Stop waits for an in-flight purge to finish.
func (rs *RetentionService) Stop() {
	if rs.cancel == nil {
		return
	}
	rs.cancel()
	rs.wg.Wait()
	rs.logger.Info("document retention stopped")
}

func (rs *RetentionService) RunOnce(ctx context.Context) int {
	cutoff := rs.now().Add(-rs.maxAge)
	purged, err := rs.purger.PurgeExpired(ctx, cutoff)
	if err != nil {
		rs.logger.Error("document retention failed", zap.Time("cutoff", cutoff), zap.Error(err))
	}
	if purged > 0 {
		rs.logger.Info("expired documents removed", zap.Int("count", purged), zap.Time("cutoff", cutoff))
	}
	return purged
}
