package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/incentive-engine/incentive"
)

func newStore(t *testing.T) *Store {
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func approvedSale(id, product, amount string, day time.Time) *incentive.Sale {
	now := time.Now().UTC()
	return &incentive.Sale{
		ID:              id,
		ClientID:        "cli-1",
		EmployeeID:      "emp-1",
		Product:         incentive.Product(product),
		Amount:          incentive.MustParseDecimal(amount),
		Points:          incentive.MustParseDecimal("0"),
		IncentiveAmount: incentive.MustParseDecimal("0"),
		Date:            day,
		Status:          incentive.StatusApproved,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func seedClient(t *testing.T, store *Store) {
	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, &incentive.Employee{
		ID: "emp-1", Name: "Ravi Kumar", Role: incentive.RoleEmployee, Active: true,
	}))
	require.NoError(t, store.SaveClient(ctx, &incentive.Client{
		ID: "cli-1", Name: "Sharma Family", EmployeeID: "emp-1",
	}))
}

// =============================================================================
// MISSING ROWS RETURN (nil, nil)
// =============================================================================

func TestMissingRowsReturnNilNotError(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	sale, err := store.GetSale(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, sale)

	client, err := store.GetClient(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, client)

	emp, err := store.GetEmployee(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, emp)

	rule, err := store.ActiveRule(ctx, incentive.ProductSIP)
	require.NoError(t, err)
	assert.Nil(t, rule, "unconfigured product has no rule, not an error")
}

// =============================================================================
// UPSERT SEMANTICS
// =============================================================================

func TestSaveSale_UpsertsByID(t *testing.T) {
	store := newStore(t)
	seedClient(t, store)
	ctx := context.Background()
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	sale := approvedSale("sale-1", "SIP", "10000", day)
	require.NoError(t, store.SaveSale(ctx, sale))

	sale.Amount = incentive.MustParseDecimal("12000")
	sale.Status = incentive.StatusRejected
	sale.RejectionReason = "duplicate entry"
	require.NoError(t, store.SaveSale(ctx, sale))

	got, err := store.GetSale(ctx, "sale-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Amount.Equal(incentive.MustParseDecimal("12000")))
	assert.Equal(t, incentive.StatusRejected, got.Status)
	assert.Equal(t, "duplicate entry", got.RejectionReason)

	all, err := store.ListSales(ctx, incentive.SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "save by existing id must not duplicate")
}

func TestSaveSale_RoundTripsOptionalFields(t *testing.T) {
	store := newStore(t)
	seedClient(t, store)
	ctx := context.Background()
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	approvedAt := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	cover := incentive.MustParseDecimal("500000")
	sale := approvedSale("sale-1", "Life Insurance", "25000", day)
	sale.CoverAmount = &cover
	sale.ApprovedBy = "emp-admin"
	sale.ApprovedAt = &approvedAt
	require.NoError(t, store.SaveSale(ctx, sale))

	got, err := store.GetSale(ctx, "sale-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.CoverAmount)
	assert.True(t, got.CoverAmount.Equal(cover))
	assert.Equal(t, "emp-admin", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.ApprovedAt.Equal(approvedAt))
	assert.True(t, got.Date.Equal(day), "sale date survives the TEXT round trip")
}

func TestSaveRule_UpsertsByProduct(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRule(ctx, &incentive.IncentiveRule{
		ID: "rule-1", Product: incentive.ProductSIP,
		UnitAmount:    incentive.MustParseDecimal("1000"),
		PointsPerUnit: incentive.MustParseDecimal("5"),
		Active:        true,
	}))
	require.NoError(t, store.SaveRule(ctx, &incentive.IncentiveRule{
		ID: "rule-2", Product: incentive.ProductSIP,
		UnitAmount:    incentive.MustParseDecimal("1000"),
		PointsPerUnit: incentive.MustParseDecimal("10"),
		Active:        true,
	}))

	rules, err := store.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1, "one rule per product")
	assert.True(t, rules[0].PointsPerUnit.Equal(incentive.MustParseDecimal("10")))

	active, err := store.ActiveRule(ctx, incentive.ProductSIP)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.True(t, active.PointsPerUnit.Equal(incentive.MustParseDecimal("10")))
}

func TestActiveRule_IgnoresInactive(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRule(ctx, &incentive.IncentiveRule{
		ID: "rule-1", Product: incentive.ProductPMS,
		UnitAmount:    incentive.MustParseDecimal("100000"),
		PointsPerUnit: incentive.MustParseDecimal("200"),
		Active:        false,
	}))

	rule, err := store.ActiveRule(ctx, incentive.ProductPMS)
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestUpsertMonthlyIncentive_KeyedByEmployeePeriod(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mi := &incentive.MonthlyIncentive{
		EmployeeID: "emp-1", Year: 2025, Month: 3,
		TotalPoints: incentive.MustParseDecimal("200"),
		TotalAmount: incentive.MustParseDecimal("40000"),
		CreatedAt:   now,
	}
	require.NoError(t, store.UpsertMonthlyIncentive(ctx, mi))

	mi.TotalPoints = incentive.MustParseDecimal("250")
	mi.TotalAmount = incentive.MustParseDecimal("50000")
	require.NoError(t, store.UpsertMonthlyIncentive(ctx, mi))

	rows, err := store.ListMonthlyIncentives(ctx, incentive.IncentiveFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].TotalPoints.Equal(incentive.MustParseDecimal("250")))

	// A different month is a different row.
	mi.Month = 4
	require.NoError(t, store.UpsertMonthlyIncentive(ctx, mi))
	rows, err = store.ListMonthlyIncentives(ctx, incentive.IncentiveFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestUpsertTargetHistory_KeyedByEmployeeProductPeriod(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	h := &incentive.MonthlyTargetHistory{
		EmployeeID: "emp-1", Product: incentive.ProductSIP, Year: 2025, Month: 3,
		TargetValue:   incentive.MustParseDecimal("100000"),
		AchievedValue: incentive.MustParseDecimal("40000"),
		PointsValue:   incentive.MustParseDecimal("200"),
	}
	require.NoError(t, store.UpsertTargetHistory(ctx, h))

	h.AchievedValue = incentive.MustParseDecimal("65000")
	require.NoError(t, store.UpsertTargetHistory(ctx, h))

	rows, err := store.ListTargetHistory(ctx, incentive.HistoryFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].AchievedValue.Equal(incentive.MustParseDecimal("65000")))
}

// =============================================================================
// FILTERS AND ORDERING
// =============================================================================

func TestListSales_Filters(t *testing.T) {
	store := newStore(t)
	seedClient(t, store)
	ctx := context.Background()

	mar5 := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	mar10 := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	apr1 := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveSale(ctx, approvedSale("sale-1", "SIP", "10000", mar5)))
	require.NoError(t, store.SaveSale(ctx, approvedSale("sale-2", "PMS", "300000", mar10)))
	pending := approvedSale("sale-3", "SIP", "5000", apr1)
	pending.Status = incentive.StatusPending
	require.NoError(t, store.SaveSale(ctx, pending))

	byProduct, err := store.ListSales(ctx, incentive.SaleFilter{Product: incentive.ProductSIP})
	require.NoError(t, err)
	assert.Len(t, byProduct, 2)

	byStatus, err := store.ListSales(ctx, incentive.SaleFilter{Status: incentive.StatusPending})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "sale-3", byStatus[0].ID)

	march, err := store.ListSales(ctx, incentive.SaleFilter{
		From: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Len(t, march, 2)
}

func TestApprovedAmount_WindowAndStatus(t *testing.T) {
	store := newStore(t)
	seedClient(t, store)
	ctx := context.Background()

	mar10 := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveSale(ctx, approvedSale("sale-1", "SIP", "10000", mar10)))
	pending := approvedSale("sale-2", "SIP", "99999", mar10)
	pending.Status = incentive.StatusPending
	require.NoError(t, store.SaveSale(ctx, pending))

	from := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)

	total, err := store.ApprovedAmount(ctx, incentive.ProductSIP, from, to, "")
	require.NoError(t, err)
	assert.True(t, total.Equal(incentive.MustParseDecimal("10000")), "got %s", total)

	perEmployee, err := store.ApprovedAmount(ctx, incentive.ProductSIP, from, to, "emp-other")
	require.NoError(t, err)
	assert.True(t, perEmployee.IsZero())
}

// =============================================================================
// AGGREGATE COLUMN WRITES
// =============================================================================

func TestUpdateClientAggregates(t *testing.T) {
	store := newStore(t)
	seedClient(t, store)
	ctx := context.Background()

	agg := incentive.ClientAggregates{
		SIPAmount: incentive.MustParseDecimal("10000"), SIPStatus: true,
		LifeCover: incentive.MustParseDecimal("500000"), LifeStatus: true,
	}
	require.NoError(t, store.UpdateClientAggregates(ctx, "cli-1", agg))

	client, err := store.GetClient(ctx, "cli-1")
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.True(t, client.Aggregates.SIPAmount.Equal(incentive.MustParseDecimal("10000")))
	assert.True(t, client.Aggregates.LifeStatus)
	assert.True(t, client.Aggregates.PMSAmount.IsZero())

	err = store.UpdateClientAggregates(ctx, "cli-missing", agg)
	assert.ErrorIs(t, err, incentive.ErrClientNotFound)
}

func TestUpdateTargetValue(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTarget(ctx, &incentive.Target{
		ID: "tgt-1", Product: incentive.ProductSIP,
		Type: incentive.TargetDaily, Value: incentive.MustParseDecimal("25000"),
	}))

	require.NoError(t, store.UpdateTargetValue(ctx,
		incentive.ProductSIP, incentive.TargetDaily, incentive.MustParseDecimal("30000")))

	targets, err := store.ListTargets(ctx, incentive.TargetDaily)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.True(t, targets[0].Value.Equal(incentive.MustParseDecimal("30000")))

	err = store.UpdateTargetValue(ctx,
		incentive.ProductPMS, incentive.TargetDaily, incentive.MustParseDecimal("1"))
	assert.ErrorIs(t, err, incentive.ErrTargetNotFound)
}

func TestCountActiveEmployees(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, &incentive.Employee{
		ID: "emp-1", Name: "Ravi Kumar", Role: incentive.RoleEmployee, Active: true,
	}))
	require.NoError(t, store.SaveEmployee(ctx, &incentive.Employee{
		ID: "emp-2", Name: "Meera Joshi", Role: incentive.RoleEmployee, Active: false,
	}))

	n, err := store.CountActiveEmployees(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := store.ListEmployees(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "emp-1", active[0].ID)

	all, err := store.ListEmployees(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
