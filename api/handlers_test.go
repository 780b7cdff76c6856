package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/incentive-engine/incentive"
	"github.com/warp/incentive-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestAPI(t *testing.T) (http.Handler, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SaveEmployee(ctx, &incentive.Employee{
		ID: "emp-admin", Name: "Asha Rao", Role: incentive.RoleAdmin, Active: true,
	}))
	require.NoError(t, store.SaveEmployee(ctx, &incentive.Employee{
		ID: "emp-1", Name: "Ravi Kumar", Role: incentive.RoleEmployee, Active: true,
	}))
	require.NoError(t, store.SaveClient(ctx, &incentive.Client{
		ID: "cli-1", Name: "Sharma Family", EmployeeID: "emp-1",
	}))
	require.NoError(t, store.SaveRule(ctx, &incentive.IncentiveRule{
		ID: "rule-sip", Product: incentive.ProductSIP,
		UnitAmount:    incentive.MustParseDecimal("1000"),
		PointsPerUnit: incentive.MustParseDecimal("5"),
		Active:        true,
	}))

	return NewRouter(NewHandler(store)), store
}

// doAs performs a request with actor identity headers and returns the recorder.
func doAs(t *testing.T, router http.Handler, method, path string, body any, actorID, role string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actorID != "" {
		req.Header.Set("X-Actor-ID", actorID)
		req.Header.Set("X-Actor-Role", role)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func todayStr() string {
	return time.Now().UTC().Format("2006-01-02")
}

// =============================================================================
// EMPLOYEE AND CLIENT ENDPOINTS
// =============================================================================

func TestAPI_CreateEmployee(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doAs(t, router, "POST", "/api/employees", CreateEmployeeRequest{
		ID: "emp-2", Name: "Meera Joshi", Role: "manager",
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	dto := decodeBody[EmployeeDTO](t, rec)
	assert.Equal(t, "manager", dto.Role)
	assert.True(t, dto.Active, "active defaults to true")

	// Missing name is rejected.
	rec = doAs(t, router, "POST", "/api/employees", CreateEmployeeRequest{ID: "emp-3"}, "emp-admin", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown role is rejected.
	rec = doAs(t, router, "POST", "/api/employees", CreateEmployeeRequest{
		ID: "emp-3", Name: "X", Role: "superuser",
	}, "emp-admin", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_GetMissingResources(t *testing.T) {
	router, _ := newTestAPI(t)

	assert.Equal(t, http.StatusNotFound, doAs(t, router, "GET", "/api/employees/nope", nil, "", "").Code)
	assert.Equal(t, http.StatusNotFound, doAs(t, router, "GET", "/api/clients/nope", nil, "", "").Code)
	assert.Equal(t, http.StatusNotFound, doAs(t, router, "GET", "/api/sales/nope", nil, "", "").Code)
}

// =============================================================================
// SALE ENDPOINTS
// =============================================================================

func TestAPI_AdminSale_ApprovedWithDerivedPoints(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doAs(t, router, "POST", "/api/sales", SaleRequest{
		ID: "sale-1", ClientID: "cli-1", EmployeeID: "emp-1",
		Product: "SIP", Amount: incentive.MustParseDecimal("10000"), Date: todayStr(),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	dto := decodeBody[SaleDTO](t, rec)
	assert.Equal(t, "approved", dto.Status)
	assert.Equal(t, "emp-admin", dto.ApprovedBy)
	assert.Equal(t, "50", dto.Points)

	// The client's aggregates follow the approved sale.
	rec = doAs(t, router, "GET", "/api/clients/cli-1", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	client := decodeBody[ClientDTO](t, rec)
	assert.Equal(t, "10000", client.Aggregates.SIPAmount)
	assert.True(t, client.Aggregates.SIPStatus)
}

func TestAPI_EmployeeSale_ApprovalFlow(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doAs(t, router, "POST", "/api/sales", SaleRequest{
		ID: "sale-1", ClientID: "cli-1", EmployeeID: "emp-1",
		Product: "SIP", Amount: incentive.MustParseDecimal("5000"), Date: todayStr(),
	}, "emp-1", "employee")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "pending", decodeBody[SaleDTO](t, rec).Status)

	// An employee may not approve.
	rec = doAs(t, router, "POST", "/api/sales/sale-1/approve", nil, "emp-1", "employee")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAs(t, router, "POST", "/api/sales/sale-1/approve", nil, "emp-admin", "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", decodeBody[SaleDTO](t, rec).Status)
}

func TestAPI_RejectSale_CarriesReason(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doAs(t, router, "POST", "/api/sales", SaleRequest{
		ID: "sale-1", ClientID: "cli-1", EmployeeID: "emp-1",
		Product: "SIP", Amount: incentive.MustParseDecimal("5000"), Date: todayStr(),
	}, "emp-1", "employee")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doAs(t, router, "POST", "/api/sales/sale-1/reject",
		RejectSaleRequest{Reason: "missing client mandate"}, "emp-admin", "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decodeBody[SaleDTO](t, rec)
	assert.Equal(t, "rejected", dto.Status)
	assert.Equal(t, "missing client mandate", dto.RejectionReason)
}

func TestAPI_SaleValidation(t *testing.T) {
	router, _ := newTestAPI(t)

	// Negative amount.
	rec := doAs(t, router, "POST", "/api/sales", SaleRequest{
		ClientID: "cli-1", EmployeeID: "emp-1", Product: "SIP",
		Amount: incentive.MustParseDecimal("-1"), Date: todayStr(),
	}, "emp-admin", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed date.
	rec = doAs(t, router, "POST", "/api/sales", SaleRequest{
		ClientID: "cli-1", EmployeeID: "emp-1", Product: "SIP",
		Amount: incentive.MustParseDecimal("1000"), Date: "10/03/2025",
	}, "emp-admin", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown product.
	rec = doAs(t, router, "POST", "/api/sales", SaleRequest{
		ClientID: "cli-1", EmployeeID: "emp-1", Product: "Crypto",
		Amount: incentive.MustParseDecimal("1000"), Date: todayStr(),
	}, "emp-admin", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown client.
	rec = doAs(t, router, "POST", "/api/sales", SaleRequest{
		ClientID: "cli-nope", EmployeeID: "emp-1", Product: "SIP",
		Amount: incentive.MustParseDecimal("1000"), Date: todayStr(),
	}, "emp-admin", "admin")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_EmployeeCannotDeleteOthersSale(t *testing.T) {
	router, store := newTestAPI(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, &incentive.Employee{
		ID: "emp-2", Name: "Meera Joshi", Role: incentive.RoleEmployee, Active: true,
	}))

	rec := doAs(t, router, "POST", "/api/sales", SaleRequest{
		ID: "sale-1", ClientID: "cli-1", EmployeeID: "emp-1",
		Product: "SIP", Amount: incentive.MustParseDecimal("5000"), Date: todayStr(),
	}, "emp-1", "employee")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doAs(t, router, "DELETE", "/api/sales/sale-1", nil, "emp-2", "employee")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAs(t, router, "DELETE", "/api/sales/sale-1", nil, "emp-1", "employee")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// =============================================================================
// RULE AND TARGET ENDPOINTS
// =============================================================================

func TestAPI_SaveRule(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doAs(t, router, "PUT", "/api/rules", SaveRuleRequest{
		Product:       "PMS",
		UnitAmount:    incentive.MustParseDecimal("100000"),
		PointsPerUnit: incentive.MustParseDecimal("200"),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PMS", decodeBody[RuleDTO](t, rec).Product)

	// Invalid product.
	rec = doAs(t, router, "PUT", "/api/rules", SaveRuleRequest{
		Product: "Crypto", UnitAmount: incentive.MustParseDecimal("1"),
	}, "emp-admin", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Zero unit amount would make points division meaningless.
	rec = doAs(t, router, "PUT", "/api/rules", SaveRuleRequest{
		Product: "PMS", UnitAmount: incentive.MustParseDecimal("0"),
	}, "emp-admin", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_TargetLifecycle(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doAs(t, router, "POST", "/api/targets", CreateTargetRequest{
		Product: "SIP", Type: "daily", Value: incentive.MustParseDecimal("25000"),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// A second daily SIP target conflicts.
	rec = doAs(t, router, "POST", "/api/targets", CreateTargetRequest{
		Product: "SIP", Type: "daily", Value: incentive.MustParseDecimal("30000"),
	}, "emp-admin", "admin")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doAs(t, router, "PUT", "/api/targets", UpdateTargetRequest{
		Product: "SIP", Type: "daily", Value: incentive.MustParseDecimal("30000"),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "30000", decodeBody[TargetDTO](t, rec).Value)

	// Updating an absent target is a 404.
	rec = doAs(t, router, "PUT", "/api/targets", UpdateTargetRequest{
		Product: "PMS", Type: "monthly", Value: incentive.MustParseDecimal("1"),
	}, "emp-admin", "admin")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doAs(t, router, "DELETE", "/api/targets?product=SIP&type=daily", nil, "emp-admin", "admin")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doAs(t, router, "GET", "/api/targets", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]TargetDTO](t, rec))
}

func TestAPI_Progress(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doAs(t, router, "POST", "/api/targets", CreateTargetRequest{
		Product: "SIP", Type: "daily", Value: incentive.MustParseDecimal("25000"),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doAs(t, router, "POST", "/api/sales", SaleRequest{
		ID: "sale-1", ClientID: "cli-1", EmployeeID: "emp-1",
		Product: "SIP", Amount: incentive.MustParseDecimal("10000"), Date: todayStr(),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doAs(t, router, "GET", "/api/progress?type=daily&employee_id=emp-1", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rows := decodeBody[[]ProgressDTO](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "SIP", rows[0].Product)
	assert.Equal(t, "25000", rows[0].TargetValue)
	assert.Equal(t, "10000", rows[0].Achieved)
	assert.Equal(t, "40", rows[0].Pct)
}

// =============================================================================
// ADMIN / BATCH ENDPOINTS
// =============================================================================

func TestAPI_SnapshotAndReporting(t *testing.T) {
	router, _ := newTestAPI(t)
	now := time.Now().UTC()

	rec := doAs(t, router, "POST", "/api/sales", SaleRequest{
		ID: "sale-1", ClientID: "cli-1", EmployeeID: "emp-1",
		Product: "SIP", Amount: incentive.MustParseDecimal("10000"), Date: todayStr(),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doAs(t, router, "POST", "/api/admin/snapshot", BatchRequest{
		Year: now.Year(), Month: int(now.Month()),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	report := decodeBody[BatchReportDTO](t, rec)
	assert.Equal(t, "snapshot", report.Kind)
	assert.Equal(t, 1, report.Written)

	rec = doAs(t, router, "GET", "/api/incentives?employee_id=emp-1", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decodeBody[[]MonthlyIncentiveDTO](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "10000", rows[0].TotalAmount)
	assert.Equal(t, "50", rows[0].TotalPoints)

	// The run is recorded for audit.
	rec = doAs(t, router, "GET", "/api/admin/runs?kind=snapshot", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decodeBody[[]BatchRunDTO](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 1, runs[0].RowsWritten)
}

func TestAPI_CloseWritesHistory(t *testing.T) {
	router, _ := newTestAPI(t)
	now := time.Now().UTC()

	rec := doAs(t, router, "POST", "/api/targets", CreateTargetRequest{
		Product: "SIP", Type: "monthly", Value: incentive.MustParseDecimal("100000"),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doAs(t, router, "POST", "/api/sales", SaleRequest{
		ID: "sale-1", ClientID: "cli-1", EmployeeID: "emp-1",
		Product: "SIP", Amount: incentive.MustParseDecimal("40000"), Date: todayStr(),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doAs(t, router, "POST", "/api/admin/close", BatchRequest{
		Year: now.Year(), Month: int(now.Month()),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doAs(t, router, "GET", "/api/history?employee_id=emp-1", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decodeBody[[]TargetHistoryDTO](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "100000", rows[0].TargetValue)
	assert.Equal(t, "40000", rows[0].AchievedValue)
}

func TestAPI_BatchRejectsInvalidPeriod(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doAs(t, router, "POST", "/api/admin/close", BatchRequest{Year: 2025, Month: 13}, "emp-admin", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doAs(t, router, "POST", "/api/admin/snapshot", BatchRequest{Year: 2025, Month: 13}, "emp-admin", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ResetDailyTargets(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doAs(t, router, "POST", "/api/targets", CreateTargetRequest{
		Product: "SIP", Type: "daily", Value: incentive.MustParseDecimal("25000"),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doAs(t, router, "POST", "/api/admin/reset-daily", nil, "emp-admin", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[ResetDailyResponse](t, rec).Reset)
}

func TestAPI_RecalculateIsAdminOnly(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doAs(t, router, "POST", "/api/admin/recalculate", nil, "emp-1", "employee")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doAs(t, router, "POST", "/api/sales", SaleRequest{
		ID: "sale-1", ClientID: "cli-1", EmployeeID: "emp-1",
		Product: "SIP", Amount: incentive.MustParseDecimal("10000"), Date: todayStr(),
	}, "emp-admin", "admin")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doAs(t, router, "POST", "/api/admin/recalculate", nil, "emp-admin", "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decodeBody[RecalculateResponse](t, rec).Repriced)
}

func TestAPI_SeedThenReset(t *testing.T) {
	router, _ := newTestAPI(t)

	rec := doAs(t, router, "POST", "/api/admin/seed", nil, "emp-admin", "admin")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doAs(t, router, "GET", "/api/sales", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody[[]SaleDTO](t, rec))

	rec = doAs(t, router, "POST", "/api/admin/reset", nil, "emp-admin", "admin")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doAs(t, router, "GET", "/api/sales", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]SaleDTO](t, rec))
}
