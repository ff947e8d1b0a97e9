package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)
	files := &fakeCleaner{batches: []int{3}}

	job := NewOrphanFilesJob(files, 48*time.Hour, nil)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup job: %v", err)
	}

	if len(files.cutoffs) != 1 {
		t.Fatalf("expected one batch, got %d", len(files.cutoffs))
	}
	if want := now.Add(-48 * time.Hour); !files.cutoffs[0].Equal(want) {
		t.Fatalf("unexpected cutoff: got %s want %s", files.cutoffs[0], want)
	}
}

func TestRunDrainsFullBatches(t *testing.T) {
	files := &fakeCleaner{batches: []int{2, 2, 1}}

	job := NewOrphanFilesJob(files, time.Hour, nil)
	job.batchSize = 2

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup job: %v", err)
	}
	if len(files.cutoffs) != 3 {
		t.Fatalf("expected three batches, got %d", len(files.cutoffs))
	}
}

func TestRunReportsTotalFailure(t *testing.T) {
	files := &fakeCleaner{err: errors.New("storage down")}

	job := NewOrphanFilesJob(files, time.Hour, nil)
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error when nothing could be deleted")
	}
}

func TestRunToleratesPartialFailure(t *testing.T) {
	files := &fakeCleaner{batches: []int{1}, err: errors.New("one object failed")}

	job := NewOrphanFilesJob(files, time.Hour, nil)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}
}

func TestRunWithoutCleanerIsNoop(t *testing.T) {
	if err := NewOrphanFilesJob(nil, 0, nil).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type fakeCleaner struct {
	batches []int
	err     error
	cutoffs []time.Time
}

func (f *fakeCleaner) DeleteOrphans(_ context.Context, before time.Time, _ int) (int, error) {
	f.cutoffs = append(f.cutoffs, before)
	removed := 0
	if len(f.cutoffs) <= len(f.batches) {
		removed = f.batches[len(f.cutoffs)-1]
	}
	return removed, f.err
}
