package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRetention = 7 * 24 * time.Hour
	defaultBatchSize = 100
	maxBatches       = 50
)

type OrphanCleaner interface {
	DeleteOrphans(ctx context.Context, before time.Time, limit int) (int, error)
}

// Job removes uploaded files that no user references once they are older
// than the retention period.
type Job struct {
	files     OrphanCleaner
	retention time.Duration
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

func NewOrphanFilesJob(files OrphanCleaner, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = defaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		files:     files,
		retention: retention,
		batchSize: defaultBatchSize,
		now:       time.Now,
		logger:    logger,
	}
}

// Run deletes orphans in batches until a batch comes back short. Failed
// deletions are logged and left for the next run.
func (j *Job) Run(ctx context.Context) error {
	if j.files == nil {
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	total := 0
	for i := 0; i < maxBatches; i++ {
		removed, err := j.files.DeleteOrphans(ctx, cutoff, j.batchSize)
		total += removed
		if err != nil {
			if removed == 0 {
				return fmt.Errorf("delete orphan files: %w", err)
			}
			j.logger.Warn("some orphan files were not deleted", zap.Error(err))
			break
		}
		if removed < j.batchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if total > 0 {
		j.logger.Info("cleanup orphan files completed", zap.Int("deleted", total), zap.Time("cutoff", cutoff))
	}
	return nil
}

// Loop runs the job immediately and then on every tick until ctx is done.
func (j *Job) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	run := func() {
		if err := j.Run(ctx); err != nil && ctx.Err() == nil {
			j.logger.Warn("cleanup orphan files failed", zap.Error(err))
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
