/*
errors.go - Error types for the life-cycle cost model

PURPOSE:
  All error types of the model in one place. Importers, stores and the
  HTTP layer wrap these with additional context.

ERROR CATEGORIES:
  1. Lookup errors - Missing projects or costs
  2. Validation errors - Invariants over projects, alternatives and costs
  3. Rate errors - Discount rates that cannot be derived

SEE ALSO:
  - validate.go: Produces the validation errors
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package lcc

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrCostNotFound is returned when a referenced cost doesn't exist.
	ErrCostNotFound = errors.New("cost not found")

	// ErrDanglingCostReference is returned when an alternative references a
	// cost id that is not in the project's pool.
	ErrDanglingCostReference = errors.New("alternative references unknown cost")

	// ErrMultipleBaselines is returned when more than one alternative is
	// flagged as baseline.
	ErrMultipleBaselines = errors.New("more than one baseline alternative")

	// ErrRateUnresolvable is returned when the discount rates required by the
	// dollar method are neither supplied nor derivable.
	ErrRateUnresolvable = errors.New("discount rate cannot be resolved")

	// ErrDuplicateSeason is returned when a water cost lists a season twice.
	ErrDuplicateSeason = errors.New("season listed more than once")

	// ErrInvalidCost is returned for structurally invalid cost records.
	ErrInvalidCost = errors.New("invalid cost")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RateError names the rate a project is missing.
type RateError struct {
	Method  DollarMethod
	Missing string
}

func (e *RateError) Error() string {
	return fmt.Sprintf("%s dollar analysis requires %s", e.Method, e.Missing)
}

func (e *RateError) Unwrap() error {
	return ErrRateUnresolvable
}

// DanglingReferenceError names the alternative and the missing cost.
type DanglingReferenceError struct {
	AlternativeID ID
	CostID        ID
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("alternative %d references cost %d which does not exist",
		e.AlternativeID, e.CostID)
}

func (e *DanglingReferenceError) Unwrap() error {
	return ErrDanglingCostReference
}

// CostError describes an invalid field on one cost.
type CostError struct {
	CostID ID
	Field  string
	Err    error
}

func (e *CostError) Error() string {
	return fmt.Sprintf("cost %d: %s: %v", e.CostID, e.Field, e.Err)
}

func (e *CostError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrCostNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDanglingCostReference) ||
		errors.Is(err, ErrMultipleBaselines) ||
		errors.Is(err, ErrRateUnresolvable) ||
		errors.Is(err, ErrDuplicateSeason) ||
		errors.Is(err, ErrInvalidCost)
}
