/*
Package incentive provides the core incentive and target computation engine.

PURPOSE:
  This package turns raw sale records into reward points, enforces an
  approval workflow before a sale counts, keeps denormalized client
  aggregates consistent with the sale ledger, and produces idempotent
  monthly snapshots of employee performance against configurable targets.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: The product line a sale belongs to (SIP, insurance, PMS, ...)
  - Sale: A ledger row with derived points and an approval status
  - IncentiveRule: Per-product conversion ratio from amount to points
  - Target: A configurable daily or monthly sales goal per product
  - MonthlyIncentive / MonthlyTargetHistory: Derived period snapshots

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal everywhere, never floating point
  2. Derived data is recoverable: every aggregate and snapshot can be
     rebuilt from the sale ledger at any time
  3. Approved-only aggregation: pending and rejected sales never count

SEE ALSO:
  - calculator.go: Amount-to-points conversion
  - workflow.go: Sale lifecycle (pending -> approved/rejected)
  - sync.go: Client aggregate recomputation
*/
package incentive

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DECIMAL PRECISION
// =============================================================================

// Money values carry 2 decimal places, points carry 3. Every derived value
// is rounded to these scales before persistence so re-running a computation
// converges to identical stored rows.
const (
	MoneyPlaces  = 2
	PointsPlaces = 3
)

// MustParseDecimal parses s, returning zero on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RoundMoney normalizes a monetary value to 2 decimal places.
func RoundMoney(d decimal.Decimal) decimal.Decimal { return d.Round(MoneyPlaces) }

// RoundPoints normalizes a points value to 3 decimal places.
func RoundPoints(d decimal.Decimal) decimal.Decimal { return d.Round(PointsPlaces) }

// =============================================================================
// PRODUCT
// =============================================================================

type Product string

const (
	ProductSIP             Product = "SIP"
	ProductLumsum          Product = "Lumsum"
	ProductLifeInsurance   Product = "Life Insurance"
	ProductHealthInsurance Product = "Health Insurance"
	ProductMotorInsurance  Product = "Motor Insurance"
	ProductPMS             Product = "PMS"
)

// Products returns every known product, in display order.
func Products() []Product {
	return []Product{
		ProductSIP,
		ProductLumsum,
		ProductLifeInsurance,
		ProductHealthInsurance,
		ProductMotorInsurance,
		ProductPMS,
	}
}

// Valid reports whether p is a known product.
func (p Product) Valid() bool {
	for _, known := range Products() {
		if p == known {
			return true
		}
	}
	return false
}

// IsInsuranceCover reports whether client aggregates for p are based on the
// sale's cover amount rather than its transaction amount.
func (p Product) IsInsuranceCover() bool {
	return p == ProductLifeInsurance || p == ProductHealthInsurance
}

// =============================================================================
// ROLES AND ACTORS
// =============================================================================

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// CanApprove reports whether the role may approve or reject sales.
func (r Role) CanApprove() bool { return r == RoleAdmin || r == RoleManager }

// Actor identifies who is performing a mutation. The engine treats roles as
// opaque input; authentication happens upstream.
type Actor struct {
	ID   string
	Role Role
}

// =============================================================================
// EMPLOYEE AND CLIENT
// =============================================================================

type Employee struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
}

// ClientAggregates holds the denormalized per-product totals and flags on a
// client. These fields are caches: the sale ledger is the source of truth and
// the Synchronizer is the only writer.
type ClientAggregates struct {
	SIPAmount         decimal.Decimal
	LifeCover         decimal.Decimal
	HealthCover       decimal.Decimal
	MotorInsuredValue decimal.Decimal
	PMSAmount         decimal.Decimal

	SIPStatus    bool
	LifeStatus   bool
	HealthStatus bool
	MotorStatus  bool
	PMSStatus    bool
}

type Client struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	EmployeeID string // advisor the client is mapped to, may be empty
	Aggregates ClientAggregates
	CreatedAt  time.Time
}

// =============================================================================
// INCENTIVE RULE
// =============================================================================

// IncentiveRule maps a product to a points-per-monetary-unit ratio.
// Only the active rule for a product is ever consulted; a product with no
// active rule is a valid "unconfigured" state yielding zero points.
type IncentiveRule struct {
	ID            string
	Product       Product
	UnitAmount    decimal.Decimal // base unit, e.g. 1000 or 100000
	PointsPerUnit decimal.Decimal // points awarded per UnitAmount
	Active        bool
}

// =============================================================================
// SALE
// =============================================================================

type SaleStatus string

const (
	StatusPending  SaleStatus = "pending"
	StatusApproved SaleStatus = "approved"
	StatusRejected SaleStatus = "rejected"
)

// Sale is the only entity with a real state machine. Points and
// IncentiveAmount are derived: they are recomputed on every save and never
// trusted from caller input.
type Sale struct {
	ID         string
	ClientID   string
	EmployeeID string
	Product    Product

	Amount      decimal.Decimal  // business value, 2dp
	CoverAmount *decimal.Decimal // life/health cover, nil otherwise
	Date        time.Time        // day granularity

	Points          decimal.Decimal // derived, 3dp
	IncentiveAmount decimal.Decimal // derived, 2dp

	Status          SaleStatus
	ApprovedBy      string
	ApprovedAt      *time.Time
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AggregateBasis returns the value this sale contributes to client
// aggregates: cover amount for life/health insurance when recorded,
// the transaction amount otherwise.
func (s *Sale) AggregateBasis() decimal.Decimal {
	if s.Product.IsInsuranceCover() && s.CoverAmount != nil {
		return *s.CoverAmount
	}
	return s.Amount
}

// =============================================================================
// TARGETS
// =============================================================================

type TargetType string

const (
	TargetDaily   TargetType = "daily"
	TargetMonthly TargetType = "monthly"
)

// Valid reports whether t is a known target type.
func (t TargetType) Valid() bool { return t == TargetDaily || t == TargetMonthly }

// Target is a per-product sales goal. At most one target exists per
// (product, type) pair, enforced at the write boundary. AchievedValue and
// PointsValue are running counters used only for daily targets; they are
// zeroed once per day by the reset operation.
type Target struct {
	ID      string
	Product Product
	Type    TargetType
	Value   decimal.Decimal

	AchievedValue decimal.Decimal
	PointsValue   decimal.Decimal

	CreatedAt time.Time
}

// =============================================================================
// DERIVED PERIOD SNAPSHOTS
// =============================================================================

// MonthlyIncentive is an idempotently upserted summary of an employee's
// approved sales for a period, keyed by (employee, year, month).
type MonthlyIncentive struct {
	EmployeeID  string
	Year        int
	Month       int
	TotalPoints decimal.Decimal // 3dp
	TotalAmount decimal.Decimal // 2dp
	CreatedAt   time.Time
}

// MonthlyTargetHistory freezes achieved-vs-target performance at close time,
// keyed by (employee, product, year, month). Re-running a close overwrites
// with recomputed values; it is idempotent, not append-only.
type MonthlyTargetHistory struct {
	EmployeeID    string
	Product       Product
	Year          int
	Month         int
	TargetValue   decimal.Decimal
	AchievedValue decimal.Decimal
	PointsValue   decimal.Decimal
}
