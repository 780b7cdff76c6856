/*
store.go - Persistence interfaces for the incentive engine

PURPOSE:
  Defines the interface between the domain logic and the database. The
  engine is written against these interfaces; store/sqlite provides the
  concrete implementation.

UPSERT CONTRACT:
  Derived tables (monthly incentives, target history) are written with
  insert-or-replace semantics keyed by their natural composite key. This
  trades audit history for recomputability: any derived row can be deleted
  and regenerated from the sale ledger.

TRANSACTIONS:
  TxStore.WithTx runs a function against a transactional view of the store.
  Sale mutations use it so the sale write and the client aggregate rewrite
  commit atomically - there is no window where a sale is visible with stale
  aggregates.
*/
package incentive

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// QUERY SHAPES
// =============================================================================

// SaleFilter narrows ListSales. Zero values mean "no constraint".
type SaleFilter struct {
	ClientID   string
	EmployeeID string
	Product    Product
	Status     SaleStatus
	From       time.Time
	To         time.Time
}

// ProductTotals is an employee's approved amount and points for one product
// within a period.
type ProductTotals struct {
	Amount decimal.Decimal
	Points decimal.Decimal
}

// EmployeeTotals is one employee's approved totals for a period, as grouped
// by the snapshot pass.
type EmployeeTotals struct {
	EmployeeID  string
	TotalAmount decimal.Decimal
	TotalPoints decimal.Decimal
}

// IncentiveFilter narrows ListMonthlyIncentives.
type IncentiveFilter struct {
	EmployeeID string
	Year       int
	Month      int
}

// HistoryFilter narrows ListTargetHistory.
type HistoryFilter struct {
	EmployeeID string
	Product    Product
	Year       int
	Month      int
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

// SaleStore persists the sale ledger and answers the aggregate queries every
// derived computation is built on. All Sum/Totals queries count approved
// sales only.
type SaleStore interface {
	// SaveSale inserts or replaces a sale by ID.
	SaveSale(ctx context.Context, s *Sale) error

	// GetSale returns the sale or (nil, nil) when missing.
	GetSale(ctx context.Context, id string) (*Sale, error)

	// DeleteSale removes a sale from the ledger.
	DeleteSale(ctx context.Context, id string) error

	// ListSales returns sales matching the filter, newest first.
	ListSales(ctx context.Context, f SaleFilter) ([]Sale, error)

	// ApprovedAmount sums approved sale amounts for a product in [from, to],
	// optionally scoped to one employee (empty employeeID = company-wide).
	ApprovedAmount(ctx context.Context, product Product, from, to time.Time, employeeID string) (decimal.Decimal, error)

	// MonthlyProductTotals groups one employee's approved sales in [from, to]
	// by product.
	MonthlyProductTotals(ctx context.Context, employeeID string, from, to time.Time) (map[Product]ProductTotals, error)

	// MonthlyEmployeeTotals groups all approved sales in [from, to] by
	// employee.
	MonthlyEmployeeTotals(ctx context.Context, from, to time.Time) ([]EmployeeTotals, error)
}

// ClientStore persists clients and their denormalized aggregates.
type ClientStore interface {
	SaveClient(ctx context.Context, c *Client) error
	GetClient(ctx context.Context, id string) (*Client, error)
	ListClients(ctx context.Context) ([]Client, error)

	// DeleteClient removes a client; the schema cascade-deletes its sales.
	DeleteClient(ctx context.Context, id string) error

	// UpdateClientAggregates rewrites the denormalized fields. Only the
	// Synchronizer calls this.
	UpdateClientAggregates(ctx context.Context, clientID string, agg ClientAggregates) error
}

// EmployeeStore persists employees.
type EmployeeStore interface {
	SaveEmployee(ctx context.Context, e *Employee) error
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error)
	CountActiveEmployees(ctx context.Context) (int, error)
}

// RuleStore persists incentive rules.
type RuleStore interface {
	// SaveRule inserts or replaces the rule for its product.
	SaveRule(ctx context.Context, r *IncentiveRule) error

	// ActiveRule returns the active rule for a product, or (nil, nil) when
	// the product is unconfigured.
	ActiveRule(ctx context.Context, product Product) (*IncentiveRule, error)

	ListRules(ctx context.Context) ([]IncentiveRule, error)
}

// TargetStore persists targets and enforces the one-per-(product, type)
// invariant at the write boundary.
type TargetStore interface {
	// CreateTarget inserts a new target. Returns ErrDuplicateTarget when one
	// already exists for the (product, type) pair.
	CreateTarget(ctx context.Context, t *Target) error

	// UpdateTargetValue changes the goal of an existing target.
	UpdateTargetValue(ctx context.Context, product Product, typ TargetType, value decimal.Decimal) error

	DeleteTarget(ctx context.Context, product Product, typ TargetType) error

	// ListTargets returns targets, optionally filtered by type ("" = all).
	ListTargets(ctx context.Context, typ TargetType) ([]Target, error)

	// ResetDailyCounters zeroes the achieved/points counters on all daily
	// targets. Idempotent; run once per day. Returns rows affected.
	ResetDailyCounters(ctx context.Context) (int, error)
}

// HistoryStore persists the derived period snapshots.
type HistoryStore interface {
	// UpsertMonthlyIncentive writes keyed by (employee, year, month).
	UpsertMonthlyIncentive(ctx context.Context, mi *MonthlyIncentive) error

	ListMonthlyIncentives(ctx context.Context, f IncentiveFilter) ([]MonthlyIncentive, error)

	// UpsertTargetHistory writes keyed by (employee, product, year, month).
	UpsertTargetHistory(ctx context.Context, h *MonthlyTargetHistory) error

	ListTargetHistory(ctx context.Context, f HistoryFilter) ([]MonthlyTargetHistory, error)
}

// Store is the full persistence surface the engine computes against.
type Store interface {
	SaleStore
	ClientStore
	EmployeeStore
	RuleStore
	TargetStore
	HistoryStore
}

// TxStore wraps Store with transaction support. If fn returns an error the
// transaction is rolled back, otherwise committed.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
