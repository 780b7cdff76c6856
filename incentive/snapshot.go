package incentive

import (
	"context"
	"fmt"
	"log"
	"time"
)

// =============================================================================
// MONTHLY SNAPSHOT SERVICE
// =============================================================================

// SnapshotRow reports the outcome for one employee in a snapshot pass.
type SnapshotRow struct {
	EmployeeID  string
	TotalPoints string
	TotalAmount string
	Skipped     bool
	Error       string
}

// SnapshotReport summarizes one snapshot pass.
type SnapshotReport struct {
	Period  MonthPeriod
	DryRun  bool
	Rows    []SnapshotRow
	Written int
	Skipped int
}

// SnapshotService persists per-employee, per-period incentive totals as
// idempotent upserts keyed by (employee, year, month). Re-running a period
// converges to the same rows; it never appends duplicates.
type SnapshotService struct {
	Store Store
}

// Snapshot aggregates approved sales for the period and upserts one
// MonthlyIncentive row per employee. Rows whose employee no longer exists
// are skipped with a warning; one bad row never aborts the batch. With
// dryRun set, all reads and logs happen but nothing is written.
func (s *SnapshotService) Snapshot(ctx context.Context, year, month int, dryRun bool) (*SnapshotReport, error) {
	period, err := NewMonthPeriod(year, month)
	if err != nil {
		return nil, err
	}

	report := &SnapshotReport{Period: period, DryRun: dryRun}
	log.Printf("[Snapshot] aggregating incentives for %s (%s to %s)",
		period, period.Start().Format("2006-01-02"), period.End().Format("2006-01-02"))

	totals, err := s.Store.MonthlyEmployeeTotals(ctx, period.Start(), period.End())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales for %s: %w", period, err)
	}
	if len(totals) == 0 {
		log.Printf("[Snapshot] no approved sales for %s, nothing to do", period)
		return report, nil
	}

	for _, row := range totals {
		emp, err := s.Store.GetEmployee(ctx, row.EmployeeID)
		if err != nil {
			report.Rows = append(report.Rows, SnapshotRow{EmployeeID: row.EmployeeID, Error: err.Error()})
			report.Skipped++
			continue
		}
		if emp == nil {
			log.Printf("[Snapshot] skipping unknown employee %s", row.EmployeeID)
			report.Rows = append(report.Rows, SnapshotRow{EmployeeID: row.EmployeeID, Skipped: true})
			report.Skipped++
			continue
		}

		mi := &MonthlyIncentive{
			EmployeeID:  row.EmployeeID,
			Year:        period.Year,
			Month:       int(period.Month),
			TotalPoints: RoundPoints(row.TotalPoints),
			TotalAmount: RoundMoney(row.TotalAmount),
			CreatedAt:   time.Now().UTC(),
		}

		if !dryRun {
			if err := s.Store.UpsertMonthlyIncentive(ctx, mi); err != nil {
				log.Printf("[Snapshot] failed to write snapshot for %s: %v", row.EmployeeID, err)
				report.Rows = append(report.Rows, SnapshotRow{EmployeeID: row.EmployeeID, Error: err.Error()})
				report.Skipped++
				continue
			}
		}

		report.Rows = append(report.Rows, SnapshotRow{
			EmployeeID:  row.EmployeeID,
			TotalPoints: mi.TotalPoints.String(),
			TotalAmount: mi.TotalAmount.String(),
		})
		report.Written++
		log.Printf("[Snapshot] %s => %s pts, %s", emp.Name, mi.TotalPoints, mi.TotalAmount)
	}

	log.Printf("[Snapshot] completed %s: %d written, %d skipped (dry-run=%v)",
		period, report.Written, report.Skipped, dryRun)
	return report, nil
}

// SnapshotPrevious runs the snapshot for the calendar month before now.
func (s *SnapshotService) SnapshotPrevious(ctx context.Context, now time.Time, dryRun bool) (*SnapshotReport, error) {
	p := PreviousMonth(now)
	return s.Snapshot(ctx, p.Year, int(p.Month), dryRun)
}
