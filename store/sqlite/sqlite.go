/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements incentive.TxStore using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  sales:                  The sale ledger (source of truth for derived data)
  clients:                Clients plus denormalized per-product aggregates
  employees:              Advisors/actors
  incentive_rules:        Product -> points conversion configuration
  targets:                Daily/monthly goals, unique per (product, type)
  monthly_incentives:     Snapshot rows, unique per (employee, year, month)
  monthly_target_history: Close rows, unique per (employee, product, year, month)
  batch_runs:             Audit of snapshot/close passes, unique per (kind, period)

PRECISION:
  Monetary and points values are stored as TEXT and parsed back into
  decimal.Decimal. Aggregation happens in Go over loaded rows, never via
  SQL SUM, so money values are never coerced through floats.

UPSERTS:
  Derived tables are written with ON CONFLICT ... DO UPDATE keyed by their
  natural composite keys. Re-running a batch converges instead of
  duplicating.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole transaction, which serializes aggregate rewrites against concurrent
  sale edits for the same client.

WAL MODE:
  SQLite is opened with WAL and foreign keys on; deleting a client
  cascade-deletes its sales.

USAGE:
  store, err := sqlite.New("./data/incentive.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  workflow := incentive.NewWorkflow(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - incentive/store.go: Interface definitions
  - incentive/workflow.go: Sale mutations built on WithTx
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/incentive-engine/incentive"
)

// Store implements incentive.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ incentive.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		role TEXT NOT NULL DEFAULT 'employee',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		employee_id TEXT,
		sip_amount TEXT NOT NULL DEFAULT '0',
		life_cover TEXT NOT NULL DEFAULT '0',
		health_cover TEXT NOT NULL DEFAULT '0',
		motor_insured_value TEXT NOT NULL DEFAULT '0',
		pms_amount TEXT NOT NULL DEFAULT '0',
		sip_status BOOLEAN NOT NULL DEFAULT FALSE,
		life_status BOOLEAN NOT NULL DEFAULT FALSE,
		health_status BOOLEAN NOT NULL DEFAULT FALSE,
		motor_status BOOLEAN NOT NULL DEFAULT FALSE,
		pms_status BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		employee_id TEXT NOT NULL,
		product TEXT NOT NULL,
		amount TEXT NOT NULL,
		cover_amount TEXT,
		sale_date TEXT NOT NULL,
		points TEXT NOT NULL DEFAULT '0',
		incentive_amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'pending',
		approved_by TEXT,
		approved_at TEXT,
		rejection_reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_client ON sales(client_id);
	CREATE INDEX IF NOT EXISTS idx_sales_employee_date ON sales(employee_id, sale_date);
	-- Hot path: approved amount per product per period (dashboard progress)
	CREATE INDEX IF NOT EXISTS idx_sales_product_status_date ON sales(product, status, sale_date);

	CREATE TABLE IF NOT EXISTS incentive_rules (
		id TEXT PRIMARY KEY,
		product TEXT NOT NULL UNIQUE,
		unit_amount TEXT NOT NULL,
		points_per_unit TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS targets (
		id TEXT PRIMARY KEY,
		product TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_value TEXT NOT NULL DEFAULT '0',
		achieved_value TEXT NOT NULL DEFAULT '0',
		points_value TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		UNIQUE(product, target_type)
	);

	CREATE TABLE IF NOT EXISTS monthly_incentives (
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		total_points TEXT NOT NULL DEFAULT '0',
		total_amount TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, year, month)
	);

	CREATE TABLE IF NOT EXISTS monthly_target_history (
		employee_id TEXT NOT NULL,
		product TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		target_value TEXT NOT NULL DEFAULT '0',
		achieved_value TEXT NOT NULL DEFAULT '0',
		points_value TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (employee_id, product, year, month)
	);

	CREATE TABLE IF NOT EXISTS batch_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		rows_written INTEGER DEFAULT 0,
		rows_skipped INTEGER DEFAULT 0,
		error TEXT,
		started_at TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(kind, year, month)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx abstracts *sql.DB and *sql.Tx so every operation can run either
// standalone or inside WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONS (incentive.TxStore)
// =============================================================================

// WithTx executes fn within a database transaction. The write lock is held
// for the duration, serializing aggregate rewrites per client.
func (s *Store) WithTx(ctx context.Context, fn func(incentive.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txView{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txView adapts an open *sql.Tx to the incentive.Store interface. The
// parent's lock is already held; no method here takes it again.
type txView struct {
	tx     *sql.Tx
	parent *Store
}

var _ incentive.Store = (*txView)(nil)

// =============================================================================
// SALES
// =============================================================================

func (s *Store) SaveSale(ctx context.Context, sale *incentive.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveSale(ctx, s.db, sale)
}

func (v *txView) SaveSale(ctx context.Context, sale *incentive.Sale) error {
	return v.parent.saveSale(ctx, v.tx, sale)
}

func (s *Store) saveSale(ctx context.Context, db dbtx, sale *incentive.Sale) error {
	query := `
		INSERT INTO sales
		(id, client_id, employee_id, product, amount, cover_amount, sale_date,
		 points, incentive_amount, status, approved_by, approved_at,
		 rejection_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			employee_id = excluded.employee_id,
			product = excluded.product,
			amount = excluded.amount,
			cover_amount = excluded.cover_amount,
			sale_date = excluded.sale_date,
			points = excluded.points,
			incentive_amount = excluded.incentive_amount,
			status = excluded.status,
			approved_by = excluded.approved_by,
			approved_at = excluded.approved_at,
			rejection_reason = excluded.rejection_reason,
			updated_at = excluded.updated_at
	`

	var cover any
	if sale.CoverAmount != nil {
		cover = sale.CoverAmount.String()
	}

	_, err := db.ExecContext(ctx, query,
		sale.ID,
		sale.ClientID,
		sale.EmployeeID,
		string(sale.Product),
		sale.Amount.String(),
		cover,
		sale.Date.Format("2006-01-02"),
		sale.Points.String(),
		sale.IncentiveAmount.String(),
		string(sale.Status),
		nullString(sale.ApprovedBy),
		fmtTimePtr(sale.ApprovedAt),
		sale.RejectionReason,
		sale.CreatedAt.UTC().Format(time.RFC3339),
		sale.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save sale: %w", err)
	}
	return nil
}

const saleSelect = `
	SELECT id, client_id, employee_id, product, amount, cover_amount, sale_date,
	       points, incentive_amount, status, approved_by, approved_at,
	       rejection_reason, created_at, updated_at
	FROM sales`

func (s *Store) GetSale(ctx context.Context, id string) (*incentive.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSale(ctx, s.db, id)
}

func (v *txView) GetSale(ctx context.Context, id string) (*incentive.Sale, error) {
	return v.parent.getSale(ctx, v.tx, id)
}

func (s *Store) getSale(ctx context.Context, db dbtx, id string) (*incentive.Sale, error) {
	rows, err := db.QueryContext(ctx, saleSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	sale, err := scanSale(rows)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteSale(ctx, s.db, id)
}

func (v *txView) DeleteSale(ctx context.Context, id string) error {
	return v.parent.deleteSale(ctx, v.tx, id)
}

func (s *Store) deleteSale(ctx context.Context, db dbtx, id string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM sales WHERE id = ?", id)
	return err
}

func (s *Store) ListSales(ctx context.Context, f incentive.SaleFilter) ([]incentive.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listSales(ctx, s.db, f)
}

func (v *txView) ListSales(ctx context.Context, f incentive.SaleFilter) ([]incentive.Sale, error) {
	return v.parent.listSales(ctx, v.tx, f)
}

func (s *Store) listSales(ctx context.Context, db dbtx, f incentive.SaleFilter) ([]incentive.Sale, error) {
	var conds []string
	var args []any

	if f.ClientID != "" {
		conds = append(conds, "client_id = ?")
		args = append(args, f.ClientID)
	}
	if f.EmployeeID != "" {
		conds = append(conds, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.Product != "" {
		conds = append(conds, "product = ?")
		args = append(args, string(f.Product))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.From.IsZero() {
		conds = append(conds, "sale_date >= ?")
		args = append(args, f.From.Format("2006-01-02"))
	}
	if !f.To.IsZero() {
		conds = append(conds, "sale_date <= ?")
		args = append(args, f.To.Format("2006-01-02"))
	}

	query := saleSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY sale_date DESC, created_at DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []incentive.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func scanSale(rows *sql.Rows) (incentive.Sale, error) {
	var (
		sale            incentive.Sale
		product, status string
		amount, points  string
		incentiveAmt    string
		saleDate        string
		cover           sql.NullString
		approvedBy      sql.NullString
		approvedAt      sql.NullString
		createdAt       string
		updatedAt       string
	)

	err := rows.Scan(
		&sale.ID, &sale.ClientID, &sale.EmployeeID, &product, &amount, &cover,
		&saleDate, &points, &incentiveAmt, &status, &approvedBy, &approvedAt,
		&sale.RejectionReason, &createdAt, &updatedAt,
	)
	if err != nil {
		return sale, fmt.Errorf("failed to scan sale: %w", err)
	}

	sale.Product = incentive.Product(product)
	sale.Status = incentive.SaleStatus(status)
	sale.Amount = incentive.MustParseDecimal(amount)
	sale.Points = incentive.MustParseDecimal(points)
	sale.IncentiveAmount = incentive.MustParseDecimal(incentiveAmt)
	sale.Date, _ = time.Parse("2006-01-02", saleDate)
	sale.ApprovedBy = approvedBy.String
	sale.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sale.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if cover.Valid {
		d := incentive.MustParseDecimal(cover.String)
		sale.CoverAmount = &d
	}
	if approvedAt.Valid {
		t, _ := time.Parse(time.RFC3339, approvedAt.String)
		sale.ApprovedAt = &t
	}

	return sale, nil
}

// =============================================================================
// SALE AGGREGATES
// =============================================================================
// Sums are computed in Go over loaded rows so money never passes through
// SQL's float coercion of TEXT columns.

func (s *Store) ApprovedAmount(ctx context.Context, product incentive.Product, from, to time.Time, employeeID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.approvedAmount(ctx, s.db, product, from, to, employeeID)
}

func (v *txView) ApprovedAmount(ctx context.Context, product incentive.Product, from, to time.Time, employeeID string) (decimal.Decimal, error) {
	return v.parent.approvedAmount(ctx, v.tx, product, from, to, employeeID)
}

func (s *Store) approvedAmount(ctx context.Context, db dbtx, product incentive.Product, from, to time.Time, employeeID string) (decimal.Decimal, error) {
	sales, err := s.listSales(ctx, db, incentive.SaleFilter{
		Product:    product,
		EmployeeID: employeeID,
		Status:     incentive.StatusApproved,
		From:       from,
		To:         to,
	})
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i := range sales {
		total = total.Add(sales[i].Amount)
	}
	return total, nil
}

func (s *Store) MonthlyProductTotals(ctx context.Context, employeeID string, from, to time.Time) (map[incentive.Product]incentive.ProductTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monthlyProductTotals(ctx, s.db, employeeID, from, to)
}

func (v *txView) MonthlyProductTotals(ctx context.Context, employeeID string, from, to time.Time) (map[incentive.Product]incentive.ProductTotals, error) {
	return v.parent.monthlyProductTotals(ctx, v.tx, employeeID, from, to)
}

func (s *Store) monthlyProductTotals(ctx context.Context, db dbtx, employeeID string, from, to time.Time) (map[incentive.Product]incentive.ProductTotals, error) {
	sales, err := s.listSales(ctx, db, incentive.SaleFilter{
		EmployeeID: employeeID,
		Status:     incentive.StatusApproved,
		From:       from,
		To:         to,
	})
	if err != nil {
		return nil, err
	}

	totals := make(map[incentive.Product]incentive.ProductTotals)
	for i := range sales {
		sale := &sales[i]
		row := totals[sale.Product]
		row.Amount = row.Amount.Add(sale.Amount)
		row.Points = row.Points.Add(sale.Points)
		totals[sale.Product] = row
	}
	return totals, nil
}

func (s *Store) MonthlyEmployeeTotals(ctx context.Context, from, to time.Time) ([]incentive.EmployeeTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.monthlyEmployeeTotals(ctx, s.db, from, to)
}

func (v *txView) MonthlyEmployeeTotals(ctx context.Context, from, to time.Time) ([]incentive.EmployeeTotals, error) {
	return v.parent.monthlyEmployeeTotals(ctx, v.tx, from, to)
}

func (s *Store) monthlyEmployeeTotals(ctx context.Context, db dbtx, from, to time.Time) ([]incentive.EmployeeTotals, error) {
	sales, err := s.listSales(ctx, db, incentive.SaleFilter{
		Status: incentive.StatusApproved,
		From:   from,
		To:     to,
	})
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[string]*incentive.EmployeeTotals)
	var order []string
	for i := range sales {
		sale := &sales[i]
		row, ok := byEmployee[sale.EmployeeID]
		if !ok {
			row = &incentive.EmployeeTotals{EmployeeID: sale.EmployeeID}
			byEmployee[sale.EmployeeID] = row
			order = append(order, sale.EmployeeID)
		}
		row.TotalAmount = row.TotalAmount.Add(sale.Amount)
		row.TotalPoints = row.TotalPoints.Add(sale.Points)
	}

	totals := make([]incentive.EmployeeTotals, 0, len(order))
	for _, id := range order {
		totals = append(totals, *byEmployee[id])
	}
	return totals, nil
}

// =============================================================================
// CLIENTS
// =============================================================================

const clientSelect = `
	SELECT id, name, email, phone, employee_id,
	       sip_amount, life_cover, health_cover, motor_insured_value, pms_amount,
	       sip_status, life_status, health_status, motor_status, pms_status,
	       created_at
	FROM clients`

func (s *Store) SaveClient(ctx context.Context, c *incentive.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveClient(ctx, s.db, c)
}

func (v *txView) SaveClient(ctx context.Context, c *incentive.Client) error {
	return v.parent.saveClient(ctx, v.tx, c)
}

func (s *Store) saveClient(ctx context.Context, db dbtx, c *incentive.Client) error {
	query := `
		INSERT INTO clients (id, name, email, phone, employee_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			employee_id = excluded.employee_id
	`

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, query,
		c.ID, c.Name, c.Email, c.Phone, nullString(c.EmployeeID),
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*incentive.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getClient(ctx, s.db, id)
}

func (v *txView) GetClient(ctx context.Context, id string) (*incentive.Client, error) {
	return v.parent.getClient(ctx, v.tx, id)
}

func (s *Store) getClient(ctx context.Context, db dbtx, id string) (*incentive.Client, error) {
	rows, err := db.QueryContext(ctx, clientSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	c, err := scanClient(rows)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]incentive.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listClients(ctx, s.db)
}

func (v *txView) ListClients(ctx context.Context) ([]incentive.Client, error) {
	return v.parent.listClients(ctx, v.tx)
}

func (s *Store) listClients(ctx context.Context, db dbtx) ([]incentive.Client, error) {
	rows, err := db.QueryContext(ctx, clientSelect+" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []incentive.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func scanClient(rows *sql.Rows) (incentive.Client, error) {
	var (
		c                        incentive.Client
		email, phone, employeeID sql.NullString
		sip, life, health        string
		motor, pms               string
		createdAt                string
	)

	err := rows.Scan(
		&c.ID, &c.Name, &email, &phone, &employeeID,
		&sip, &life, &health, &motor, &pms,
		&c.Aggregates.SIPStatus, &c.Aggregates.LifeStatus, &c.Aggregates.HealthStatus,
		&c.Aggregates.MotorStatus, &c.Aggregates.PMSStatus,
		&createdAt,
	)
	if err != nil {
		return c, fmt.Errorf("failed to scan client: %w", err)
	}

	c.Email = email.String
	c.Phone = phone.String
	c.EmployeeID = employeeID.String
	c.Aggregates.SIPAmount = incentive.MustParseDecimal(sip)
	c.Aggregates.LifeCover = incentive.MustParseDecimal(life)
	c.Aggregates.HealthCover = incentive.MustParseDecimal(health)
	c.Aggregates.MotorInsuredValue = incentive.MustParseDecimal(motor)
	c.Aggregates.PMSAmount = incentive.MustParseDecimal(pms)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return c, nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteClient(ctx, s.db, id)
}

func (v *txView) DeleteClient(ctx context.Context, id string) error {
	return v.parent.deleteClient(ctx, v.tx, id)
}

func (s *Store) deleteClient(ctx context.Context, db dbtx, id string) error {
	// Sales cascade via the foreign key.
	_, err := db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	return err
}

func (s *Store) UpdateClientAggregates(ctx context.Context, clientID string, agg incentive.ClientAggregates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateClientAggregates(ctx, s.db, clientID, agg)
}

func (v *txView) UpdateClientAggregates(ctx context.Context, clientID string, agg incentive.ClientAggregates) error {
	return v.parent.updateClientAggregates(ctx, v.tx, clientID, agg)
}

func (s *Store) updateClientAggregates(ctx context.Context, db dbtx, clientID string, agg incentive.ClientAggregates) error {
	query := `
		UPDATE clients SET
			sip_amount = ?, life_cover = ?, health_cover = ?,
			motor_insured_value = ?, pms_amount = ?,
			sip_status = ?, life_status = ?, health_status = ?,
			motor_status = ?, pms_status = ?
		WHERE id = ?
	`

	res, err := db.ExecContext(ctx, query,
		agg.SIPAmount.String(), agg.LifeCover.String(), agg.HealthCover.String(),
		agg.MotorInsuredValue.String(), agg.PMSAmount.String(),
		agg.SIPStatus, agg.LifeStatus, agg.HealthStatus,
		agg.MotorStatus, agg.PMSStatus,
		clientID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client aggregates: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", incentive.ErrClientNotFound, clientID)
	}
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, e *incentive.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveEmployee(ctx, s.db, e)
}

func (v *txView) SaveEmployee(ctx context.Context, e *incentive.Employee) error {
	return v.parent.saveEmployee(ctx, v.tx, e)
}

func (s *Store) saveEmployee(ctx context.Context, db dbtx, e *incentive.Employee) error {
	query := `
		INSERT INTO employees (id, name, email, role, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role = excluded.role,
			active = excluded.active
	`

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, query,
		e.ID, e.Name, e.Email, string(e.Role), e.Active,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*incentive.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployee(ctx, s.db, id)
}

func (v *txView) GetEmployee(ctx context.Context, id string) (*incentive.Employee, error) {
	return v.parent.getEmployee(ctx, v.tx, id)
}

func (s *Store) getEmployee(ctx context.Context, db dbtx, id string) (*incentive.Employee, error) {
	var (
		e         incentive.Employee
		email     sql.NullString
		role      string
		createdAt string
	)

	err := db.QueryRowContext(ctx,
		"SELECT id, name, email, role, active, created_at FROM employees WHERE id = ?", id,
	).Scan(&e.ID, &e.Name, &email, &role, &e.Active, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.Email = email.String
	e.Role = incentive.Role(role)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

func (s *Store) ListEmployees(ctx context.Context, activeOnly bool) ([]incentive.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listEmployees(ctx, s.db, activeOnly)
}

func (v *txView) ListEmployees(ctx context.Context, activeOnly bool) ([]incentive.Employee, error) {
	return v.parent.listEmployees(ctx, v.tx, activeOnly)
}

func (s *Store) listEmployees(ctx context.Context, db dbtx, activeOnly bool) ([]incentive.Employee, error) {
	query := "SELECT id, name, email, role, active, created_at FROM employees"
	if activeOnly {
		query += " WHERE active"
	}
	query += " ORDER BY name"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []incentive.Employee
	for rows.Next() {
		var (
			e         incentive.Employee
			email     sql.NullString
			role      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Name, &email, &role, &e.Active, &createdAt); err != nil {
			return nil, err
		}
		e.Email = email.String
		e.Role = incentive.Role(role)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) CountActiveEmployees(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countActiveEmployees(ctx, s.db)
}

func (v *txView) CountActiveEmployees(ctx context.Context) (int, error) {
	return v.parent.countActiveEmployees(ctx, v.tx)
}

func (s *Store) countActiveEmployees(ctx context.Context, db dbtx) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees WHERE active").Scan(&count)
	return count, err
}

// =============================================================================
// INCENTIVE RULES
// =============================================================================

func (s *Store) SaveRule(ctx context.Context, r *incentive.IncentiveRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveRule(ctx, s.db, r)
}

func (v *txView) SaveRule(ctx context.Context, r *incentive.IncentiveRule) error {
	return v.parent.saveRule(ctx, v.tx, r)
}

func (s *Store) saveRule(ctx context.Context, db dbtx, r *incentive.IncentiveRule) error {
	query := `
		INSERT INTO incentive_rules (id, product, unit_amount, points_per_unit, active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(product) DO UPDATE SET
			unit_amount = excluded.unit_amount,
			points_per_unit = excluded.points_per_unit,
			active = excluded.active
	`

	_, err := db.ExecContext(ctx, query,
		r.ID, string(r.Product), r.UnitAmount.String(), r.PointsPerUnit.String(), r.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to save incentive rule: %w", err)
	}
	return nil
}

func (s *Store) ActiveRule(ctx context.Context, product incentive.Product) (*incentive.IncentiveRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeRule(ctx, s.db, product)
}

func (v *txView) ActiveRule(ctx context.Context, product incentive.Product) (*incentive.IncentiveRule, error) {
	return v.parent.activeRule(ctx, v.tx, product)
}

func (s *Store) activeRule(ctx context.Context, db dbtx, product incentive.Product) (*incentive.IncentiveRule, error) {
	var (
		r          incentive.IncentiveRule
		prod       string
		unitAmount string
		perUnit    string
	)

	err := db.QueryRowContext(ctx,
		"SELECT id, product, unit_amount, points_per_unit, active FROM incentive_rules WHERE product = ? AND active",
		string(product),
	).Scan(&r.ID, &prod, &unitAmount, &perUnit, &r.Active)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.Product = incentive.Product(prod)
	r.UnitAmount = incentive.MustParseDecimal(unitAmount)
	r.PointsPerUnit = incentive.MustParseDecimal(perUnit)
	return &r, nil
}

func (s *Store) ListRules(ctx context.Context) ([]incentive.IncentiveRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRules(ctx, s.db)
}

func (v *txView) ListRules(ctx context.Context) ([]incentive.IncentiveRule, error) {
	return v.parent.listRules(ctx, v.tx)
}

func (s *Store) listRules(ctx context.Context, db dbtx) ([]incentive.IncentiveRule, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, product, unit_amount, points_per_unit, active FROM incentive_rules ORDER BY product")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []incentive.IncentiveRule
	for rows.Next() {
		var (
			r          incentive.IncentiveRule
			prod       string
			unitAmount string
			perUnit    string
		)
		if err := rows.Scan(&r.ID, &prod, &unitAmount, &perUnit, &r.Active); err != nil {
			return nil, err
		}
		r.Product = incentive.Product(prod)
		r.UnitAmount = incentive.MustParseDecimal(unitAmount)
		r.PointsPerUnit = incentive.MustParseDecimal(perUnit)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// =============================================================================
// TARGETS
// =============================================================================

func (s *Store) CreateTarget(ctx context.Context, t *incentive.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createTarget(ctx, s.db, t)
}

func (v *txView) CreateTarget(ctx context.Context, t *incentive.Target) error {
	return v.parent.createTarget(ctx, v.tx, t)
}

func (s *Store) createTarget(ctx context.Context, db dbtx, t *incentive.Target) error {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO targets (id, product, target_type, target_value, achieved_value, points_value, created_at)
		 VALUES (?, ?, ?, ?, '0', '0', ?)`,
		t.ID, string(t.Product), string(t.Type), t.Value.String(),
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &incentive.DuplicateTargetError{Product: t.Product, Type: t.Type}
		}
		return fmt.Errorf("failed to create target: %w", err)
	}
	return nil
}

func (s *Store) UpdateTargetValue(ctx context.Context, product incentive.Product, typ incentive.TargetType, value decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateTargetValue(ctx, s.db, product, typ, value)
}

func (v *txView) UpdateTargetValue(ctx context.Context, product incentive.Product, typ incentive.TargetType, value decimal.Decimal) error {
	return v.parent.updateTargetValue(ctx, v.tx, product, typ, value)
}

func (s *Store) updateTargetValue(ctx context.Context, db dbtx, product incentive.Product, typ incentive.TargetType, value decimal.Decimal) error {
	res, err := db.ExecContext(ctx,
		"UPDATE targets SET target_value = ? WHERE product = ? AND target_type = ?",
		value.String(), string(product), string(typ),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %s", incentive.ErrTargetNotFound, typ, product)
	}
	return nil
}

func (s *Store) DeleteTarget(ctx context.Context, product incentive.Product, typ incentive.TargetType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTarget(ctx, s.db, product, typ)
}

func (v *txView) DeleteTarget(ctx context.Context, product incentive.Product, typ incentive.TargetType) error {
	return v.parent.deleteTarget(ctx, v.tx, product, typ)
}

func (s *Store) deleteTarget(ctx context.Context, db dbtx, product incentive.Product, typ incentive.TargetType) error {
	_, err := db.ExecContext(ctx,
		"DELETE FROM targets WHERE product = ? AND target_type = ?",
		string(product), string(typ),
	)
	return err
}

func (s *Store) ListTargets(ctx context.Context, typ incentive.TargetType) ([]incentive.Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listTargets(ctx, s.db, typ)
}

func (v *txView) ListTargets(ctx context.Context, typ incentive.TargetType) ([]incentive.Target, error) {
	return v.parent.listTargets(ctx, v.tx, typ)
}

func (s *Store) listTargets(ctx context.Context, db dbtx, typ incentive.TargetType) ([]incentive.Target, error) {
	query := "SELECT id, product, target_type, target_value, achieved_value, points_value, created_at FROM targets"
	var args []any
	if typ != "" {
		query += " WHERE target_type = ?"
		args = append(args, string(typ))
	}
	query += " ORDER BY product, target_type"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []incentive.Target
	for rows.Next() {
		var (
			t                       incentive.Target
			product, targetType     string
			value, achieved, points string
			createdAt               string
		)
		if err := rows.Scan(&t.ID, &product, &targetType, &value, &achieved, &points, &createdAt); err != nil {
			return nil, err
		}
		t.Product = incentive.Product(product)
		t.Type = incentive.TargetType(targetType)
		t.Value = incentive.MustParseDecimal(value)
		t.AchievedValue = incentive.MustParseDecimal(achieved)
		t.PointsValue = incentive.MustParseDecimal(points)
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func (s *Store) ResetDailyCounters(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetDailyCounters(ctx, s.db)
}

func (v *txView) ResetDailyCounters(ctx context.Context) (int, error) {
	return v.parent.resetDailyCounters(ctx, v.tx)
}

func (s *Store) resetDailyCounters(ctx context.Context, db dbtx) (int, error) {
	res, err := db.ExecContext(ctx,
		"UPDATE targets SET achieved_value = '0', points_value = '0' WHERE target_type = ?",
		string(incentive.TargetDaily),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// =============================================================================
// MONTHLY INCENTIVES (snapshot rows)
// =============================================================================

func (s *Store) UpsertMonthlyIncentive(ctx context.Context, mi *incentive.MonthlyIncentive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertMonthlyIncentive(ctx, s.db, mi)
}

func (v *txView) UpsertMonthlyIncentive(ctx context.Context, mi *incentive.MonthlyIncentive) error {
	return v.parent.upsertMonthlyIncentive(ctx, v.tx, mi)
}

func (s *Store) upsertMonthlyIncentive(ctx context.Context, db dbtx, mi *incentive.MonthlyIncentive) error {
	query := `
		INSERT INTO monthly_incentives (employee_id, year, month, total_points, total_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, year, month) DO UPDATE SET
			total_points = excluded.total_points,
			total_amount = excluded.total_amount
	`

	createdAt := mi.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, query,
		mi.EmployeeID, mi.Year, mi.Month,
		mi.TotalPoints.String(), mi.TotalAmount.String(),
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert monthly incentive: %w", err)
	}
	return nil
}

func (s *Store) ListMonthlyIncentives(ctx context.Context, f incentive.IncentiveFilter) ([]incentive.MonthlyIncentive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMonthlyIncentives(ctx, s.db, f)
}

func (v *txView) ListMonthlyIncentives(ctx context.Context, f incentive.IncentiveFilter) ([]incentive.MonthlyIncentive, error) {
	return v.parent.listMonthlyIncentives(ctx, v.tx, f)
}

func (s *Store) listMonthlyIncentives(ctx context.Context, db dbtx, f incentive.IncentiveFilter) ([]incentive.MonthlyIncentive, error) {
	var conds []string
	var args []any

	if f.EmployeeID != "" {
		conds = append(conds, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.Year != 0 {
		conds = append(conds, "year = ?")
		args = append(args, f.Year)
	}
	if f.Month != 0 {
		conds = append(conds, "month = ?")
		args = append(args, f.Month)
	}

	query := "SELECT employee_id, year, month, total_points, total_amount, created_at FROM monthly_incentives"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY year DESC, month DESC, employee_id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incentives []incentive.MonthlyIncentive
	for rows.Next() {
		var (
			mi             incentive.MonthlyIncentive
			points, amount string
			createdAt      string
		)
		if err := rows.Scan(&mi.EmployeeID, &mi.Year, &mi.Month, &points, &amount, &createdAt); err != nil {
			return nil, err
		}
		mi.TotalPoints = incentive.MustParseDecimal(points)
		mi.TotalAmount = incentive.MustParseDecimal(amount)
		mi.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		incentives = append(incentives, mi)
	}
	return incentives, rows.Err()
}

// =============================================================================
// MONTHLY TARGET HISTORY (close rows)
// =============================================================================

func (s *Store) UpsertTargetHistory(ctx context.Context, h *incentive.MonthlyTargetHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertTargetHistory(ctx, s.db, h)
}

func (v *txView) UpsertTargetHistory(ctx context.Context, h *incentive.MonthlyTargetHistory) error {
	return v.parent.upsertTargetHistory(ctx, v.tx, h)
}

func (s *Store) upsertTargetHistory(ctx context.Context, db dbtx, h *incentive.MonthlyTargetHistory) error {
	query := `
		INSERT INTO monthly_target_history
		(employee_id, product, year, month, target_value, achieved_value, points_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, product, year, month) DO UPDATE SET
			target_value = excluded.target_value,
			achieved_value = excluded.achieved_value,
			points_value = excluded.points_value
	`

	_, err := db.ExecContext(ctx, query,
		h.EmployeeID, string(h.Product), h.Year, h.Month,
		h.TargetValue.String(), h.AchievedValue.String(), h.PointsValue.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert target history: %w", err)
	}
	return nil
}

func (s *Store) ListTargetHistory(ctx context.Context, f incentive.HistoryFilter) ([]incentive.MonthlyTargetHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listTargetHistory(ctx, s.db, f)
}

func (v *txView) ListTargetHistory(ctx context.Context, f incentive.HistoryFilter) ([]incentive.MonthlyTargetHistory, error) {
	return v.parent.listTargetHistory(ctx, v.tx, f)
}

func (s *Store) listTargetHistory(ctx context.Context, db dbtx, f incentive.HistoryFilter) ([]incentive.MonthlyTargetHistory, error) {
	var conds []string
	var args []any

	if f.EmployeeID != "" {
		conds = append(conds, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.Product != "" {
		conds = append(conds, "product = ?")
		args = append(args, string(f.Product))
	}
	if f.Year != 0 {
		conds = append(conds, "year = ?")
		args = append(args, f.Year)
	}
	if f.Month != 0 {
		conds = append(conds, "month = ?")
		args = append(args, f.Month)
	}

	query := `SELECT employee_id, product, year, month, target_value, achieved_value, points_value
		FROM monthly_target_history`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY year DESC, month DESC, employee_id, product"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []incentive.MonthlyTargetHistory
	for rows.Next() {
		var (
			h                        incentive.MonthlyTargetHistory
			product                  string
			target, achieved, points string
		)
		if err := rows.Scan(&h.EmployeeID, &product, &h.Year, &h.Month, &target, &achieved, &points); err != nil {
			return nil, err
		}
		h.Product = incentive.Product(product)
		h.TargetValue = incentive.MustParseDecimal(target)
		h.AchievedValue = incentive.MustParseDecimal(achieved)
		h.PointsValue = incentive.MustParseDecimal(points)
		history = append(history, h)
	}
	return history, rows.Err()
}

// =============================================================================
// BATCH RUNS (scheduler audit)
// =============================================================================

// BatchRun records one snapshot/close pass over a period.
type BatchRun struct {
	ID          string
	Kind        string // "close" or "snapshot"
	Year        int
	Month       int
	Status      string // pending, running, completed, failed
	RowsWritten int
	RowsSkipped int
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// SaveBatchRun upserts a run keyed by (kind, year, month).
func (s *Store) SaveBatchRun(ctx context.Context, r BatchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO batch_runs
		(id, kind, year, month, status, rows_written, rows_skipped, error, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, year, month) DO UPDATE SET
			status = excluded.status,
			rows_written = excluded.rows_written,
			rows_skipped = excluded.rows_skipped,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Kind, r.Year, r.Month, r.Status,
		r.RowsWritten, r.RowsSkipped, nullString(r.Error),
		fmtTimePtr(r.StartedAt), fmtTimePtr(r.CompletedAt),
		createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListBatchRuns returns runs, optionally filtered by kind ("" = all).
func (s *Store) ListBatchRuns(ctx context.Context, kind string) ([]BatchRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, kind, year, month, status, rows_written, rows_skipped, error, started_at, completed_at, created_at
		FROM batch_runs`
	var args []any
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY year DESC, month DESC, kind"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []BatchRun
	for rows.Next() {
		var (
			r                               BatchRun
			errMsg                          sql.NullString
			startedAt, completedAt, created sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Kind, &r.Year, &r.Month, &r.Status,
			&r.RowsWritten, &r.RowsSkipped, &errMsg, &startedAt, &completedAt, &created); err != nil {
			return nil, err
		}
		r.Error = errMsg.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, created.String)
		if startedAt.Valid {
			t, _ := time.Parse(time.RFC3339, startedAt.String)
			r.StartedAt = &t
		}
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// IsBatchRunComplete checks whether a period has already been processed.
func (s *Store) IsBatchRunComplete(ctx context.Context, kind string, year, month int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM batch_runs WHERE kind = ? AND year = ? AND month = ? AND status = 'completed'",
		kind, year, month,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"sales", "monthly_incentives", "monthly_target_history",
		"batch_runs", "targets", "incentive_rules", "clients", "employees",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
