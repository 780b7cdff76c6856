package incentive

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TARGET TRACKER - Read-only achieved-vs-target progress
// =============================================================================

// Progress is the achieved-vs-target result for one target. Pct is 0 when
// the target value is zero; the division is guarded, never raised.
type Progress struct {
	Product     Product
	Type        TargetType
	TargetValue decimal.Decimal
	Achieved    decimal.Decimal
	Pct         decimal.Decimal
}

// Tracker computes live target progress from the sale ledger. It is
// stateless and performs no writes; dashboards call it on every render.
type Tracker struct {
	Store Store
}

// Progress resolves the achieved amount for the target's current period as
// of asOf. An empty employeeID requests the company-wide view, where the
// per-head target is scaled by the number of active employees.
func (t *Tracker) Progress(ctx context.Context, target Target, employeeID string, asOf time.Time) (Progress, error) {
	var from, to time.Time
	switch target.Type {
	case TargetDaily:
		from, to = DayPeriod(asOf)
	case TargetMonthly:
		p := MonthOf(asOf)
		from, to = p.Start(), p.End()
	default:
		return Progress{}, ErrInvalidTargetType
	}

	achieved, err := t.Store.ApprovedAmount(ctx, target.Product, from, to, employeeID)
	if err != nil {
		return Progress{}, err
	}

	targetValue := target.Value
	if employeeID == "" {
		headcount, err := t.Store.CountActiveEmployees(ctx)
		if err != nil {
			return Progress{}, err
		}
		targetValue = target.Value.Mul(decimal.NewFromInt(int64(headcount)))
	}

	return Progress{
		Product:     target.Product,
		Type:        target.Type,
		TargetValue: targetValue,
		Achieved:    achieved,
		Pct:         progressPct(achieved, targetValue),
	}, nil
}

// ProgressAll computes progress for every target of the given type.
func (t *Tracker) ProgressAll(ctx context.Context, typ TargetType, employeeID string, asOf time.Time) ([]Progress, error) {
	targets, err := t.Store.ListTargets(ctx, typ)
	if err != nil {
		return nil, err
	}

	results := make([]Progress, 0, len(targets))
	for _, target := range targets {
		p, err := t.Progress(ctx, target, employeeID, asOf)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, nil
}

var hundred = decimal.NewFromInt(100)

func progressPct(achieved, targetValue decimal.Decimal) decimal.Decimal {
	if targetValue.IsZero() {
		return decimal.Zero
	}
	return achieved.Div(targetValue).Mul(hundred).Round(MoneyPlaces)
}
