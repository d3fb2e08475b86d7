// Package errtypes contains definitions for the errors the drive engine
// hands back to its callers. Each kind is its own small type so the HTTP
// layer can map it to a status without string matching.
package errtypes

import "errors"

// NotFound is the error to use when a node is missing or not owned by the
// actor for operations that require ownership.
type NotFound string

func (e NotFound) Error() string { return "not found: " + string(e) }

func (e NotFound) IsNotFound() {}

// PermissionDenied is the error to use when the permission resolver denies
// an operation. It carries no storage detail.
type PermissionDenied string

func (e PermissionDenied) Error() string { return "permission denied: " + string(e) }

func (e PermissionDenied) IsPermissionDenied() {}

// Conflict is the error to use when a sibling with the same name already
// exists under the target parent.
type Conflict string

func (e Conflict) Error() string { return "conflict: " + string(e) }

func (e Conflict) IsConflict() {}

// InvalidOperation is the error to use for structurally invalid requests,
// such as moving a folder into its own subtree or restoring an active file.
type InvalidOperation string

func (e InvalidOperation) Error() string { return "invalid operation: " + string(e) }

func (e InvalidOperation) IsInvalidOperation() {}

// QuotaExceeded is the error to use when a write would push the owner past
// their storage limit.
type QuotaExceeded string

func (e QuotaExceeded) Error() string { return "quota exceeded: " + string(e) }

func (e QuotaExceeded) IsQuotaExceeded() {}

// StorageFailure wraps an underlying store or content-store error. It is
// recoverable from the caller's point of view and distinct from a denial.
type StorageFailure struct {
	Msg string
	Err error
}

func (e StorageFailure) Error() string {
	if e.Err != nil {
		return "storage failure: " + e.Msg + ": " + e.Err.Error()
	}
	return "storage failure: " + e.Msg
}

func (e StorageFailure) Unwrap() error { return e.Err }

func (e StorageFailure) IsStorageFailure() {}

func IsNotFound(err error) bool {
	var t interface{ IsNotFound() }
	return errors.As(err, &t)
}

func IsPermissionDenied(err error) bool {
	var t interface{ IsPermissionDenied() }
	return errors.As(err, &t)
}

func IsConflict(err error) bool {
	var t interface{ IsConflict() }
	return errors.As(err, &t)
}

func IsInvalidOperation(err error) bool {
	var t interface{ IsInvalidOperation() }
	return errors.As(err, &t)
}

func IsQuotaExceeded(err error) bool {
	var t interface{ IsQuotaExceeded() }
	return errors.As(err, &t)
}

func IsStorageFailure(err error) bool {
	var t interface{ IsStorageFailure() }
	return errors.As(err, &t)
}
