package core

import "errors"

// Admission-time errors. A transaction failing with one of these is rejected
// before consuming its execution attempt: it is never finalized and leaves no
// ledger trace. The client retries by submitting a corrected transaction.
var (
	// ErrMalformed is returned on a structurally invalid intent.
	ErrMalformed = errors.New("malformed transaction")
	// ErrZeroAmount is returned when a transfer names a zero amount.
	ErrZeroAmount = errors.New("transfer amount must be positive")
	// ErrStaleObject is returned when an input reference does not match the
	// store's current (id, version, digest) triple.
	ErrStaleObject = errors.New("stale object reference")
	// ErrNotOwner is returned when the sender does not own the source object.
	ErrNotOwner = errors.New("object not owned by sender")
)

// Execution-time soft failures. These consume the transaction's single
// execution attempt and are recorded in the ledger as failed effects.
var (
	// ErrNoBalance is returned when the source balance cannot cover the transfer.
	ErrNoBalance = errors.New("insufficient balance")
)

// ErrInternal is returned on any unrecoverable fault, such as a store
// inconsistency. It is neither a rejection nor a soft failure and must
// propagate to the caller.
var ErrInternal = errors.New("internal error")

// IsAdmissionError reports whether err belongs to the admission-time taxonomy.
func IsAdmissionError(err error) bool {
	return errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrZeroAmount) ||
		errors.Is(err, ErrStaleObject) ||
		errors.Is(err, ErrNotOwner)
}
