package quest

import "errors"

// Domain errors raised close to the violated precondition and propagated
// unmodified to the HTTP boundary.
var (
	ErrNotFound            = errors.New("not found")
	ErrBadRequest          = errors.New("bad request")
	ErrForbidden           = errors.New("forbidden")
	ErrAlreadyRewarded     = errors.New("riddle already solved")
	ErrAlreadyMarked       = errors.New("insider visit already marked")
	ErrInsufficientCoins   = errors.New("insufficient coins")
	ErrCannotMarkUnsolved  = errors.New("riddle not solved yet")
	ErrQuestionNotAssigned = errors.New("riddle not assigned to this insider")
	ErrLanguageMismatch    = errors.New("block language does not match team language")
	ErrTokenExpired        = errors.New("token expired or invalid")

	// ErrConfiguration indicates a deployment or data-seeding defect, such
	// as a missing attempt type row. Never expected in steady state.
	ErrConfiguration = errors.New("configuration error")

	// ErrDuplicateAttempt is returned by the ledger when a uniqueness
	// constraint rejects an insert. Callers translate it to the
	// operation-specific "already done" error.
	ErrDuplicateAttempt = errors.New("duplicate attempt")
)
