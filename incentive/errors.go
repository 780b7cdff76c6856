/*
errors.go - Centralized error types for the incentive engine

PURPOSE:
  All domain error types in one place. The engine never produces an HTTP
  response; it returns these typed errors and the API layer maps them to
  status codes.

ERROR CATEGORIES:
  1. Not-found errors - referenced entity missing
  2. Validation errors - business rule violations at the write boundary
  3. Permission errors - actor role not allowed to perform the mutation

NOTE:
  A missing incentive rule is NOT an error. PointsCalculator returns zero
  points for unconfigured products; see calculator.go.
*/
package incentive

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSaleNotFound is returned when a referenced sale doesn't exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrClientNotFound is returned when a referenced client doesn't exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrTargetNotFound is returned when a referenced target doesn't exist.
	ErrTargetNotFound = errors.New("target not found")

	// ErrDuplicateTarget is returned when creating a target for a
	// (product, type) pair that already has one.
	ErrDuplicateTarget = errors.New("target already exists for product and type")

	// ErrInvalidProduct is returned for an unknown product name.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrInvalidTargetType is returned for a target type outside daily/monthly.
	ErrInvalidTargetType = errors.New("invalid target type")

	// ErrInvalidPeriod is returned for a malformed year/month pair.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrPermissionDenied is returned when the actor's role does not allow
	// the attempted mutation.
	ErrPermissionDenied = errors.New("permission denied")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateTargetError reports which (product, type) pair collided.
type DuplicateTargetError struct {
	Product Product
	Type    TargetType
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("a %s target for %s already exists", e.Type, e.Product)
}

func (e *DuplicateTargetError) Unwrap() error { return ErrDuplicateTarget }

// PermissionError reports which actor was denied which action.
type PermissionError struct {
	ActorID string
	Role    Role
	Action  string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("actor %s (role %s) may not %s", e.ActorID, e.Role, e.Action)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrTargetNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateTarget) ||
		errors.Is(err, ErrInvalidProduct) ||
		errors.Is(err, ErrInvalidTargetType) ||
		errors.Is(err, ErrInvalidPeriod)
}
