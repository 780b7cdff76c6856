/*
handlers.go - HTTP API handlers for the incentive engine

PURPOSE:
  Exposes the incentive and target computation engine via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees              List employees (?active=true)
    POST   /api/employees              Create/update employee
    GET    /api/employees/{id}         Get employee details

  Clients:
    GET    /api/clients                List clients with aggregates
    POST   /api/clients                Create/update client
    GET    /api/clients/{id}           Get client details
    DELETE /api/clients/{id}           Delete client (cascades sales)

  Sales:
    GET    /api/sales                  List sales (filterable)
    POST   /api/sales                  Create sale (points derived)
    GET    /api/sales/{id}             Get sale
    PUT    /api/sales/{id}             Update sale (repriced)
    DELETE /api/sales/{id}             Delete sale (client resynced)
    POST   /api/sales/{id}/approve     Approve a pending/rejected sale
    POST   /api/sales/{id}/reject      Reject with a reason

  Rules and targets:
    GET    /api/rules                  List incentive rules
    PUT    /api/rules                  Upsert rule for a product
    GET    /api/targets                List targets (?type=)
    POST   /api/targets                Create target (409 on duplicate)
    PUT    /api/targets                Update target value
    DELETE /api/targets                Delete target (?product=&type=)
    GET    /api/progress               Live achieved-vs-target progress

  Reporting:
    GET    /api/incentives             Monthly incentive snapshots
    GET    /api/history                Closed target history

  Admin:
    POST   /api/admin/close            Run monthly close
    POST   /api/admin/snapshot         Run monthly incentive snapshot
    POST   /api/admin/reset-daily      Zero daily target counters
    POST   /api/admin/recalculate      Reprice all sales from current rules
    GET    /api/admin/runs             List recorded batch runs
    POST   /api/admin/reset            Clear all data (dev only)

ACTOR IDENTIFICATION:
  Mutating endpoints read X-Actor-ID and X-Actor-Role headers. The role
  defaults to "employee". Authentication is assumed to happen upstream; the
  engine only enforces role-based rules on what it is told.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 403: Role not allowed to perform the mutation
  - 404: Resource not found
  - 409: Conflict (duplicate target)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - seed.go: Demo data loader
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/incentive-engine/incentive"
	"github.com/warp/incentive-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Workflow *incentive.Workflow
	Tracker  *incentive.Tracker
	Snapshot *incentive.SnapshotService
	Closer   *incentive.Closer
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Workflow: incentive.NewWorkflow(store),
		Tracker:  &incentive.Tracker{Store: store},
		Snapshot: &incentive.SnapshotService{Store: store},
		Closer:   &incentive.Closer{Store: store},
	}
}

// actorFrom extracts the acting identity from request headers.
func actorFrom(r *http.Request) incentive.Actor {
	role := incentive.Role(r.Header.Get("X-Actor-Role"))
	if role == "" {
		role = incentive.RoleEmployee
	}
	return incentive.Actor{
		ID:   r.Header.Get("X-Actor-ID"),
		Role: role,
	}
}

func newID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees, or only active ones with ?active=true.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	employees, err := h.Store.ListEmployees(r.Context(), activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i := range employees {
		dtos[i] = toEmployeeDTO(&employees[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates or updates an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	role := incentive.Role(req.Role)
	if role == "" {
		role = incentive.RoleEmployee
	}
	switch role {
	case incentive.RoleAdmin, incentive.RoleManager, incentive.RoleEmployee:
	default:
		writeError(w, http.StatusBadRequest, "Invalid role", nil)
		return
	}

	emp := incentive.Employee{
		ID:     req.ID,
		Name:   req.Name,
		Email:  req.Email,
		Role:   role,
		Active: true,
	}
	if req.Active != nil {
		emp.Active = *req.Active
	}

	if err := h.Store.SaveEmployee(r.Context(), &emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(&emp))
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients including their derived aggregates.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = toClientDTO(&clients[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	client, err := h.Store.GetClient(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(client))
}

// CreateClient creates or updates a client. Aggregate fields are ignored on
// input; they are owned by the synchronizer.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	client := incentive.Client{
		ID:         req.ID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		EmployeeID: req.EmployeeID,
	}
	if err := h.Store.SaveClient(r.Context(), &client); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save client", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(&client))
}

// DeleteClient removes a client; its sales are cascade-deleted.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteClient(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete client", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns sales matching the query filters.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := incentive.SaleFilter{
		ClientID:   q.Get("client_id"),
		EmployeeID: q.Get("employee_id"),
		Product:    incentive.Product(q.Get("product")),
		Status:     incentive.SaleStatus(q.Get("status")),
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
		filter.To = t
	}

	sales, err := h.Store.ListSales(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i := range sales {
		dtos[i] = toSaleDTO(&sales[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSale returns a single sale.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sale, err := h.Store.GetSale(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get sale", err)
		return
	}
	if sale == nil {
		writeError(w, http.StatusNotFound, "Sale not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(sale))
}

// CreateSale records a new sale. Points are derived server-side and the
// initial status depends on the actor's role.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	input, id, ok := h.decodeSaleRequest(w, r)
	if !ok {
		return
	}
	if id == "" {
		id = newID("sale")
	}

	sale, err := h.Workflow.CreateSale(r.Context(), id, input, actorFrom(r))
	if err != nil {
		writeDomainError(w, "Failed to create sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(sale))
}

// UpdateSale edits a sale's caller-controlled fields and reprices it.
func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	input, _, ok := h.decodeSaleRequest(w, r)
	if !ok {
		return
	}

	sale, err := h.Workflow.UpdateSale(r.Context(), chi.URLParam(r, "id"), input, actorFrom(r))
	if err != nil {
		writeDomainError(w, "Failed to update sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(sale))
}

// DeleteSale removes a sale and resyncs its client's aggregates.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.Workflow.DeleteSale(r.Context(), chi.URLParam(r, "id"), actorFrom(r)); err != nil {
		writeDomainError(w, "Failed to delete sale", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApproveSale transitions a sale to approved.
func (h *Handler) ApproveSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.Workflow.Approve(r.Context(), chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		writeDomainError(w, "Failed to approve sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(sale))
}

// RejectSale transitions a sale to rejected.
func (h *Handler) RejectSale(w http.ResponseWriter, r *http.Request) {
	var req RejectSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sale, err := h.Workflow.Reject(r.Context(), chi.URLParam(r, "id"), actorFrom(r), req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to reject sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(sale))
}

func (h *Handler) decodeSaleRequest(w http.ResponseWriter, r *http.Request) (incentive.SaleInput, string, bool) {
	var req SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return incentive.SaleInput{}, "", false
	}
	if req.Amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount must not be negative", nil)
		return incentive.SaleInput{}, "", false
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return incentive.SaleInput{}, "", false
	}

	return incentive.SaleInput{
		ClientID:    req.ClientID,
		EmployeeID:  req.EmployeeID,
		Product:     incentive.Product(req.Product),
		Amount:      req.Amount,
		CoverAmount: req.CoverAmount,
		Date:        date,
	}, req.ID, true
}

// =============================================================================
// INCENTIVE RULE HANDLERS
// =============================================================================

// ListRules returns every configured incentive rule.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rules", err)
		return
	}

	dtos := make([]RuleDTO, len(rules))
	for i := range rules {
		dtos[i] = toRuleDTO(&rules[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveRule upserts the incentive rule for a product. Changing a rule does
// not retroactively reprice sales; use /api/admin/recalculate for that.
func (h *Handler) SaveRule(w http.ResponseWriter, r *http.Request) {
	var req SaveRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	product := incentive.Product(req.Product)
	if !product.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid product", nil)
		return
	}
	if !req.UnitAmount.IsPositive() {
		writeError(w, http.StatusBadRequest, "unit_amount must be positive", nil)
		return
	}

	rule := incentive.IncentiveRule{
		ID:            newID("rule"),
		Product:       product,
		UnitAmount:    req.UnitAmount,
		PointsPerUnit: req.PointsPerUnit,
		Active:        true,
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}

	if err := h.Store.SaveRule(r.Context(), &rule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rule", err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTO(&rule))
}

// =============================================================================
// TARGET HANDLERS
// =============================================================================

// ListTargets returns targets, optionally filtered by ?type=daily|monthly.
func (h *Handler) ListTargets(w http.ResponseWriter, r *http.Request) {
	typ := incentive.TargetType(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid target type", nil)
		return
	}

	targets, err := h.Store.ListTargets(r.Context(), typ)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list targets", err)
		return
	}

	dtos := make([]TargetDTO, len(targets))
	for i := range targets {
		dtos[i] = toTargetDTO(&targets[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTarget creates a target; at most one may exist per (product, type).
func (h *Handler) CreateTarget(w http.ResponseWriter, r *http.Request) {
	var req CreateTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	target := incentive.Target{
		ID:      newID("target"),
		Product: incentive.Product(req.Product),
		Type:    incentive.TargetType(req.Type),
		Value:   req.Value,
	}
	if !target.Product.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid product", nil)
		return
	}
	if !target.Type.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid target type", nil)
		return
	}

	if err := h.Store.CreateTarget(r.Context(), &target); err != nil {
		writeDomainError(w, "Failed to create target", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTargetDTO(&target))
}

// UpdateTarget changes the goal value of an existing target.
func (h *Handler) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	var req UpdateTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	product := incentive.Product(req.Product)
	typ := incentive.TargetType(req.Type)
	if err := h.Store.UpdateTargetValue(r.Context(), product, typ, req.Value); err != nil {
		writeDomainError(w, "Failed to update target", err)
		return
	}

	targets, err := h.Store.ListTargets(r.Context(), typ)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load target", err)
		return
	}
	for i := range targets {
		if targets[i].Product == product {
			writeJSON(w, http.StatusOK, toTargetDTO(&targets[i]))
			return
		}
	}
	writeError(w, http.StatusNotFound, "Target not found", nil)
}

// DeleteTarget removes the target identified by ?product=&type=.
func (h *Handler) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	product := incentive.Product(r.URL.Query().Get("product"))
	typ := incentive.TargetType(r.URL.Query().Get("type"))
	if !typ.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid target type", nil)
		return
	}

	if err := h.Store.DeleteTarget(r.Context(), product, typ); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete target", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProgress returns live achieved-vs-target progress computed from the
// sale ledger. ?type selects daily or monthly (default daily); an
// employee_id narrows to one advisor, otherwise targets are scaled by
// headcount for the company-wide view.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	typ := incentive.TargetType(r.URL.Query().Get("type"))
	if typ == "" {
		typ = incentive.TargetDaily
	}
	if !typ.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid target type", nil)
		return
	}

	progress, err := h.Tracker.ProgressAll(r.Context(), typ, r.URL.Query().Get("employee_id"), time.Now().UTC())
	if err != nil {
		writeDomainError(w, "Failed to compute progress", err)
		return
	}

	dtos := make([]ProgressDTO, len(progress))
	for i, p := range progress {
		dtos[i] = toProgressDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORTING HANDLERS
// =============================================================================

// ListMonthlyIncentives returns snapshot rows filtered by the query.
func (h *Handler) ListMonthlyIncentives(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := incentive.IncentiveFilter{
		EmployeeID: q.Get("employee_id"),
		Year:       intQuery(q.Get("year")),
		Month:      intQuery(q.Get("month")),
	}

	rows, err := h.Store.ListMonthlyIncentives(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list incentives", err)
		return
	}

	dtos := make([]MonthlyIncentiveDTO, len(rows))
	for i, mi := range rows {
		dtos[i] = MonthlyIncentiveDTO{
			EmployeeID:  mi.EmployeeID,
			Year:        mi.Year,
			Month:       mi.Month,
			TotalPoints: mi.TotalPoints.String(),
			TotalAmount: mi.TotalAmount.String(),
			CreatedAt:   mi.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListTargetHistory returns closed (employee, product, month) rows.
func (h *Handler) ListTargetHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := incentive.HistoryFilter{
		EmployeeID: q.Get("employee_id"),
		Product:    incentive.Product(q.Get("product")),
		Year:       intQuery(q.Get("year")),
		Month:      intQuery(q.Get("month")),
	}

	rows, err := h.Store.ListTargetHistory(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list history", err)
		return
	}

	dtos := make([]TargetHistoryDTO, len(rows))
	for i, row := range rows {
		dtos[i] = TargetHistoryDTO{
			EmployeeID:    row.EmployeeID,
			Product:       string(row.Product),
			Year:          row.Year,
			Month:         row.Month,
			TargetValue:   row.TargetValue.String(),
			AchievedValue: row.AchievedValue.String(),
			PointsValue:   row.PointsValue.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN / BATCH HANDLERS
// =============================================================================

// TriggerClose runs the monthly close for the requested period (default:
// previous month) and records the run for audit.
func (h *Handler) TriggerClose(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBatchRequest(w, r)
	if !ok {
		return
	}

	report, err := h.Closer.Close(r.Context(), req.Year, req.Month, req.DryRun)
	if err != nil {
		writeDomainError(w, "Monthly close failed", err)
		return
	}

	if !req.DryRun {
		h.recordRun(r, "close", report.Period, report.Written, report.Failed)
	}
	writeJSON(w, http.StatusOK, BatchReportDTO{
		Kind:    "close",
		Period:  report.Period.String(),
		DryRun:  report.DryRun,
		Written: report.Written,
		Skipped: report.Failed,
	})
}

// TriggerSnapshot runs the monthly incentive snapshot for the requested
// period (default: previous month).
func (h *Handler) TriggerSnapshot(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBatchRequest(w, r)
	if !ok {
		return
	}

	report, err := h.Snapshot.Snapshot(r.Context(), req.Year, req.Month, req.DryRun)
	if err != nil {
		writeDomainError(w, "Monthly snapshot failed", err)
		return
	}

	if !req.DryRun {
		h.recordRun(r, "snapshot", report.Period, report.Written, report.Skipped)
	}
	writeJSON(w, http.StatusOK, BatchReportDTO{
		Kind:    "snapshot",
		Period:  report.Period.String(),
		DryRun:  report.DryRun,
		Written: report.Written,
		Skipped: report.Skipped,
	})
}

// ResetDailyTargets zeroes the running counters on daily targets.
func (h *Handler) ResetDailyTargets(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.ResetDailyCounters(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset daily targets", err)
		return
	}
	writeJSON(w, http.StatusOK, ResetDailyResponse{Reset: n})
}

// Recalculate reprices every sale from the current rules. Admin only.
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	count, err := h.Workflow.RecalculateAll(r.Context(), actorFrom(r))
	if err != nil {
		writeDomainError(w, "Recalculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, RecalculateResponse{Repriced: count})
}

// ListBatchRuns returns recorded close/snapshot runs (?kind= filters).
func (h *Handler) ListBatchRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListBatchRuns(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list batch runs", err)
		return
	}

	dtos := make([]BatchRunDTO, len(runs))
	for i, run := range runs {
		dto := BatchRunDTO{
			ID:          run.ID,
			Kind:        run.Kind,
			Year:        run.Year,
			Month:       run.Month,
			Status:      run.Status,
			RowsWritten: run.RowsWritten,
			RowsSkipped: run.RowsSkipped,
			Error:       run.Error,
		}
		if run.StartedAt != nil {
			dto.StartedAt = strPtr(run.StartedAt.Format(time.RFC3339))
		}
		if run.CompletedAt != nil {
			dto.CompletedAt = strPtr(run.CompletedAt.Format(time.RFC3339))
		}
		dtos[i] = dto
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResetDatabase clears all data (dev only).
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) recordRun(r *http.Request, kind string, period incentive.MonthPeriod, written, skipped int) {
	now := time.Now().UTC()
	h.Store.SaveBatchRun(r.Context(), sqlite.BatchRun{
		ID:          newID("run"),
		Kind:        kind,
		Year:        period.Year,
		Month:       int(period.Month),
		Status:      "completed",
		RowsWritten: written,
		RowsSkipped: skipped,
		StartedAt:   &now,
		CompletedAt: &now,
		CreatedAt:   now,
	})
}

func decodeBatchRequest(w http.ResponseWriter, r *http.Request) (BatchRequest, bool) {
	var req BatchRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return req, false
		}
	}
	if req.Year == 0 || req.Month == 0 {
		p := incentive.PreviousMonth(time.Now().UTC())
		req.Year, req.Month = p.Year, int(p.Month)
	}
	return req, true
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps typed engine errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case incentive.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, incentive.ErrDuplicateTarget):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, incentive.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, message, err)
	case incentive.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func intQuery(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
