/*
scheduler.go - Automated month-end batch scheduler

PURPOSE:
  Periodically checks whether the previous calendar month still needs its
  close and snapshot passes, and runs them automatically. Also zeroes the
  daily target counters once per day.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Skips periods that already have a completed batch run on record, so a
    restarted server never reprocesses a month
  - The underlying batches upsert by natural keys, so even a double run
    converges rather than duplicating
  - Records every pass in batch_runs for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewBatchScheduler(store)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - incentive/close.go: Monthly close batch
  - incentive/snapshot.go: Monthly incentive snapshot batch
  - cmd/batch/main.go: Manual invocation of the same batches
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/incentive-engine/incentive"
	"github.com/warp/incentive-engine/store/sqlite"
)

// BatchScheduler runs month-end batches and the daily counter reset.
type BatchScheduler struct {
	Store         *sqlite.Store
	Snapshot      *incentive.SnapshotService
	Closer        *incentive.Closer
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastResetDay string
}

// NewBatchScheduler creates a new scheduler over the given store.
func NewBatchScheduler(store *sqlite.Store) *BatchScheduler {
	return &BatchScheduler{
		Store:         store,
		Snapshot:      &incentive.SnapshotService{Store: store},
		Closer:        &incentive.Closer{Store: store},
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (bs *BatchScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.wg.Add(1)

	go bs.run()

	log.Printf("[Scheduler] Started with check interval: %v", bs.CheckInterval)
}

// Stop stops the scheduler.
func (bs *BatchScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (bs *BatchScheduler) run() {
	defer bs.wg.Done()

	// Run immediately on start
	bs.checkAndProcess()

	for {
		select {
		case <-bs.ticker.C:
			bs.checkAndProcess()
		case <-bs.stop:
			return
		}
	}
}

func (bs *BatchScheduler) checkAndProcess() {
	ctx := context.Background()
	now := time.Now().UTC()

	bs.resetDailyIfNewDay(ctx, now)

	prev := incentive.PreviousMonth(now)
	bs.runIfPending(ctx, "close", prev)
	bs.runIfPending(ctx, "snapshot", prev)
}

// resetDailyIfNewDay zeroes daily target counters on the first tick of each
// calendar day. The reset itself is idempotent, so the in-memory day marker
// only prevents redundant writes, not incorrect ones.
func (bs *BatchScheduler) resetDailyIfNewDay(ctx context.Context, now time.Time) {
	day := now.Format("2006-01-02")
	if day == bs.lastResetDay {
		return
	}

	n, err := bs.Store.ResetDailyCounters(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error resetting daily targets: %v", err)
		return
	}
	bs.lastResetDay = day
	if n > 0 {
		log.Printf("[Scheduler] Reset %d daily target counters for %s", n, day)
	}
}

func (bs *BatchScheduler) runIfPending(ctx context.Context, kind string, period incentive.MonthPeriod) {
	done, err := bs.Store.IsBatchRunComplete(ctx, kind, period.Year, int(period.Month))
	if err != nil {
		log.Printf("[Scheduler] Error checking %s run status for %s: %v", kind, period, err)
		return
	}
	if done {
		return
	}

	log.Printf("[Scheduler] Running %s for %s", kind, period)
	if err := bs.process(ctx, kind, period); err != nil {
		log.Printf("[Scheduler] %s for %s failed: %v", kind, period, err)
	}
}

func (bs *BatchScheduler) process(ctx context.Context, kind string, period incentive.MonthPeriod) error {
	startTime := time.Now().UTC()
	run := sqlite.BatchRun{
		ID:        newID("run"),
		Kind:      kind,
		Year:      period.Year,
		Month:     int(period.Month),
		Status:    "running",
		StartedAt: &startTime,
		CreatedAt: startTime,
	}
	if err := bs.Store.SaveBatchRun(ctx, run); err != nil {
		return err
	}

	var written, skipped int
	var err error
	switch kind {
	case "close":
		var report *incentive.CloseReport
		report, err = bs.Closer.Close(ctx, period.Year, int(period.Month), false)
		if report != nil {
			written, skipped = report.Written, report.Failed
		}
	case "snapshot":
		var report *incentive.SnapshotReport
		report, err = bs.Snapshot.Snapshot(ctx, period.Year, int(period.Month), false)
		if report != nil {
			written, skipped = report.Written, report.Skipped
		}
	}

	completedTime := time.Now().UTC()
	run.RowsWritten = written
	run.RowsSkipped = skipped
	run.CompletedAt = &completedTime
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	} else {
		run.Status = "completed"
		log.Printf("[Scheduler] Completed %s for %s: %d written, %d skipped", kind, period, written, skipped)
	}

	if saveErr := bs.Store.SaveBatchRun(ctx, run); saveErr != nil {
		return saveErr
	}
	return err
}

// RunNow triggers an immediate check (for testing/admin).
func (bs *BatchScheduler) RunNow() {
	bs.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (bs *BatchScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(bs.CheckInterval)
}
