package shared

import "errors"

// Sentinel errors forming the core failure taxonomy. Services wrap these with
// fmt.Errorf("%w: ...") to add detail; callers classify with errors.Is.
var (
	// ErrNotFound indicates a missing account, document, or referenced entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate code/number or a blocked mutation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidEntry indicates a double-entry violation.
	ErrInvalidEntry = errors.New("invalid ledger entry")
	// ErrInvalidAmount indicates a non-positive or sub-minimum amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidRelationship indicates a self-parent, cycle, or cross-organization link.
	ErrInvalidRelationship = errors.New("invalid relationship")
	// ErrInactiveAccount indicates a posting against a disabled account.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrInvalidState indicates an illegal document status transition.
	ErrInvalidState = errors.New("invalid document state")
)
