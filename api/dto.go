/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY AND POINTS:
  Response DTOs carry money and points as strings ("50000.00", "50.000"),
  preserving decimal precision across the wire. Request DTOs use
  decimal.Decimal, which accepts both JSON numbers and strings.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - incentive/types.go: Domain model these map to
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/incentive-engine/incentive"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create or update an employee.
type CreateEmployeeRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active *bool  `json:"active,omitempty"`
}

// =============================================================================
// CLIENTS
// =============================================================================

// ClientAggregatesDTO is the denormalized holdings block on a client.
type ClientAggregatesDTO struct {
	SIPAmount         string `json:"sip_amount"`
	LifeCover         string `json:"life_cover"`
	HealthCover       string `json:"health_cover"`
	MotorInsuredValue string `json:"motor_insured_value"`
	PMSAmount         string `json:"pms_amount"`
	SIPStatus         bool   `json:"sip_status"`
	LifeStatus        bool   `json:"life_status"`
	HealthStatus      bool   `json:"health_status"`
	MotorStatus       bool   `json:"motor_status"`
	PMSStatus         bool   `json:"pms_status"`
}

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Email      string              `json:"email,omitempty"`
	Phone      string              `json:"phone,omitempty"`
	EmployeeID string              `json:"employee_id,omitempty"`
	Aggregates ClientAggregatesDTO `json:"aggregates"`
	CreatedAt  string              `json:"created_at,omitempty"`
}

// CreateClientRequest is the request to create or update a client.
// Aggregates are deliberately absent: they are always derived.
type CreateClientRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	EmployeeID string `json:"employee_id"`
}

// =============================================================================
// INCENTIVE RULES
// =============================================================================

// RuleDTO represents an incentive rule in API responses.
type RuleDTO struct {
	ID            string `json:"id"`
	Product       string `json:"product"`
	UnitAmount    string `json:"unit_amount"`
	PointsPerUnit string `json:"points_per_unit"`
	Active        bool   `json:"active"`
}

// SaveRuleRequest upserts the rule for a product.
type SaveRuleRequest struct {
	Product       string          `json:"product"`
	UnitAmount    decimal.Decimal `json:"unit_amount"`
	PointsPerUnit decimal.Decimal `json:"points_per_unit"`
	Active        *bool           `json:"active,omitempty"`
}

// =============================================================================
// SALES
// =============================================================================

// SaleDTO represents a sale in API responses.
type SaleDTO struct {
	ID              string  `json:"id"`
	ClientID        string  `json:"client_id"`
	EmployeeID      string  `json:"employee_id"`
	Product         string  `json:"product"`
	Amount          string  `json:"amount"`
	CoverAmount     *string `json:"cover_amount,omitempty"`
	Date            string  `json:"date"`
	Points          string  `json:"points"`
	IncentiveAmount string  `json:"incentive_amount"`
	Status          string  `json:"status"`
	ApprovedBy      string  `json:"approved_by,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// SaleRequest is the request to create or update a sale. Points and
// incentive amount are never accepted from clients.
type SaleRequest struct {
	ID          string           `json:"id,omitempty"`
	ClientID    string           `json:"client_id"`
	EmployeeID  string           `json:"employee_id"`
	Product     string           `json:"product"`
	Amount      decimal.Decimal  `json:"amount"`
	CoverAmount *decimal.Decimal `json:"cover_amount,omitempty"`
	Date        string           `json:"date"`
}

// RejectSaleRequest carries the reviewer's reason.
type RejectSaleRequest struct {
	Reason string `json:"reason"`
}

// =============================================================================
// TARGETS AND PROGRESS
// =============================================================================

// TargetDTO represents a target in API responses.
type TargetDTO struct {
	ID            string `json:"id"`
	Product       string `json:"product"`
	Type          string `json:"type"`
	Value         string `json:"value"`
	AchievedValue string `json:"achieved_value"`
	PointsValue   string `json:"points_value"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreateTargetRequest is the request to create a target.
type CreateTargetRequest struct {
	Product string          `json:"product"`
	Type    string          `json:"type"`
	Value   decimal.Decimal `json:"value"`
}

// UpdateTargetRequest changes the goal value of an existing target.
type UpdateTargetRequest struct {
	Product string          `json:"product"`
	Type    string          `json:"type"`
	Value   decimal.Decimal `json:"value"`
}

// ProgressDTO is one achieved-vs-target row for a dashboard.
type ProgressDTO struct {
	Product     string `json:"product"`
	Type        string `json:"type"`
	TargetValue string `json:"target_value"`
	Achieved    string `json:"achieved"`
	Pct         string `json:"pct"`
}

// =============================================================================
// REPORTING
// =============================================================================

// MonthlyIncentiveDTO is one snapshot row.
type MonthlyIncentiveDTO struct {
	EmployeeID  string `json:"employee_id"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	TotalPoints string `json:"total_points"`
	TotalAmount string `json:"total_amount"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// TargetHistoryDTO is one closed (employee, product, month) row.
type TargetHistoryDTO struct {
	EmployeeID    string `json:"employee_id"`
	Product       string `json:"product"`
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	TargetValue   string `json:"target_value"`
	AchievedValue string `json:"achieved_value"`
	PointsValue   string `json:"points_value"`
}

// =============================================================================
// ADMIN / BATCH
// =============================================================================

// BatchRequest selects the period for a close or snapshot run. Year and
// month of zero mean "previous calendar month".
type BatchRequest struct {
	Year   int  `json:"year"`
	Month  int  `json:"month"`
	DryRun bool `json:"dry_run"`
}

// BatchReportDTO summarizes a close or snapshot pass.
type BatchReportDTO struct {
	Kind    string `json:"kind"`
	Period  string `json:"period"`
	DryRun  bool   `json:"dry_run"`
	Written int    `json:"written"`
	Skipped int    `json:"skipped"`
}

// BatchRunDTO is one recorded batch pass.
type BatchRunDTO struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Status      string  `json:"status"`
	RowsWritten int     `json:"rows_written"`
	RowsSkipped int     `json:"rows_skipped"`
	Error       string  `json:"error,omitempty"`
	StartedAt   *string `json:"started_at,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// ResetDailyResponse reports how many daily targets were zeroed.
type ResetDailyResponse struct {
	Reset int `json:"reset"`
}

// RecalculateResponse reports how many sales were repriced.
type RecalculateResponse struct {
	Repriced int `json:"repriced"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toEmployeeDTO(e *incentive.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		Role:      string(e.Role),
		Active:    e.Active,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func toClientDTO(c *incentive.Client) ClientDTO {
	return ClientDTO{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		EmployeeID: c.EmployeeID,
		Aggregates: ClientAggregatesDTO{
			SIPAmount:         c.Aggregates.SIPAmount.String(),
			LifeCover:         c.Aggregates.LifeCover.String(),
			HealthCover:       c.Aggregates.HealthCover.String(),
			MotorInsuredValue: c.Aggregates.MotorInsuredValue.String(),
			PMSAmount:         c.Aggregates.PMSAmount.String(),
			SIPStatus:         c.Aggregates.SIPStatus,
			LifeStatus:        c.Aggregates.LifeStatus,
			HealthStatus:      c.Aggregates.HealthStatus,
			MotorStatus:       c.Aggregates.MotorStatus,
			PMSStatus:         c.Aggregates.PMSStatus,
		},
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toRuleDTO(r *incentive.IncentiveRule) RuleDTO {
	return RuleDTO{
		ID:            r.ID,
		Product:       string(r.Product),
		UnitAmount:    r.UnitAmount.String(),
		PointsPerUnit: r.PointsPerUnit.String(),
		Active:        r.Active,
	}
}

func toSaleDTO(s *incentive.Sale) SaleDTO {
	dto := SaleDTO{
		ID:              s.ID,
		ClientID:        s.ClientID,
		EmployeeID:      s.EmployeeID,
		Product:         string(s.Product),
		Amount:          s.Amount.String(),
		Date:            s.Date.Format("2006-01-02"),
		Points:          s.Points.String(),
		IncentiveAmount: s.IncentiveAmount.String(),
		Status:          string(s.Status),
		ApprovedBy:      s.ApprovedBy,
		RejectionReason: s.RejectionReason,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       s.UpdatedAt.Format(time.RFC3339),
	}
	if s.CoverAmount != nil {
		dto.CoverAmount = strPtr(s.CoverAmount.String())
	}
	if s.ApprovedAt != nil {
		dto.ApprovedAt = strPtr(s.ApprovedAt.Format(time.RFC3339))
	}
	return dto
}

func toTargetDTO(t *incentive.Target) TargetDTO {
	return TargetDTO{
		ID:            t.ID,
		Product:       string(t.Product),
		Type:          string(t.Type),
		Value:         t.Value.String(),
		AchievedValue: t.AchievedValue.String(),
		PointsValue:   t.PointsValue.String(),
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}

func toProgressDTO(p incentive.Progress) ProgressDTO {
	return ProgressDTO{
		Product:     string(p.Product),
		Type:        string(p.Type),
		TargetValue: p.TargetValue.String(),
		Achieved:    p.Achieved.String(),
		Pct:         p.Pct.String(),
	}
}

func strPtr(s string) *string {
	return &s
}
