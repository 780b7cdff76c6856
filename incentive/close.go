package incentive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONTHLY CLOSE
// =============================================================================

// CloseRow reports one (employee, target) resolution in a close pass.
type CloseRow struct {
	EmployeeID  string
	Product     Product
	TargetValue string
	Achieved    string
	Points      string
	Error       string
}

// CloseReport summarizes one close pass.
type CloseReport struct {
	Period  MonthPeriod
	DryRun  bool
	Rows    []CloseRow
	Written int
	Failed  int
}

// Closer freezes achieved-vs-target performance into MonthlyTargetHistory
// rows, one per (employee, monthly target). Rows are upserted by their
// natural key so re-running a close for an already-closed period overwrites
// with recomputed values rather than appending.
type Closer struct {
	Store Store
}

// Close resolves every employee against every monthly target for the period.
// Each employee is processed independently: a failure for one is recorded in
// the report and never aborts the rest of the batch.
func (c *Closer) Close(ctx context.Context, year, month int, dryRun bool) (*CloseReport, error) {
	period, err := NewMonthPeriod(year, month)
	if err != nil {
		return nil, err
	}

	report := &CloseReport{Period: period, DryRun: dryRun}

	targets, err := c.Store.ListTargets(ctx, TargetMonthly)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly targets: %w", err)
	}
	employees, err := c.Store.ListEmployees(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}

	log.Printf("[Close] closing %s: %d employees x %d monthly targets (dry-run=%v)",
		period, len(employees), len(targets), dryRun)

	for _, emp := range employees {
		c.closeEmployee(ctx, report, emp, targets, period, dryRun)
	}

	log.Printf("[Close] completed %s: %d written, %d failed", period, report.Written, report.Failed)
	return report, nil
}

// CloseDefault closes the calendar month before now.
func (c *Closer) CloseDefault(ctx context.Context, now time.Time, dryRun bool) (*CloseReport, error) {
	p := PreviousMonth(now)
	return c.Close(ctx, p.Year, int(p.Month), dryRun)
}

func (c *Closer) closeEmployee(ctx context.Context, report *CloseReport, emp Employee, targets []Target, period MonthPeriod, dryRun bool) {
	totals, err := c.Store.MonthlyProductTotals(ctx, emp.ID, period.Start(), period.End())
	if err != nil {
		// Isolate the failure: record one errored row per target and move on.
		log.Printf("[Close] failed to aggregate sales for %s: %v", emp.ID, err)
		for _, target := range targets {
			report.Rows = append(report.Rows, CloseRow{
				EmployeeID: emp.ID,
				Product:    target.Product,
				Error:      err.Error(),
			})
			report.Failed++
		}
		return
	}

	for _, target := range targets {
		achieved := decimal.Zero
		points := decimal.Zero
		if row, ok := totals[target.Product]; ok {
			achieved = row.Amount
			points = row.Points
		}

		h := &MonthlyTargetHistory{
			EmployeeID:    emp.ID,
			Product:       target.Product,
			Year:          period.Year,
			Month:         int(period.Month),
			TargetValue:   RoundMoney(target.Value),
			AchievedValue: RoundMoney(achieved),
			PointsValue:   RoundPoints(points),
		}

		if !dryRun {
			if err := c.Store.UpsertTargetHistory(ctx, h); err != nil {
				log.Printf("[Close] failed to write history for %s/%s: %v", emp.ID, target.Product, err)
				report.Rows = append(report.Rows, CloseRow{
					EmployeeID: emp.ID,
					Product:    target.Product,
					Error:      err.Error(),
				})
				report.Failed++
				continue
			}
		}

		report.Rows = append(report.Rows, CloseRow{
			EmployeeID:  emp.ID,
			Product:     target.Product,
			TargetValue: h.TargetValue.String(),
			Achieved:    h.AchievedValue.String(),
			Points:      h.PointsValue.String(),
		})
		report.Written++
		log.Printf("[Close] %s | %s: achieved %s, %s pts vs target %s",
			emp.Name, target.Product, h.AchievedValue, h.PointsValue, h.TargetValue)
	}
}
