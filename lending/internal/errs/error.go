package errs

import (
	"errors"
)

// Each precondition failure maps to exactly one sentinel so callers
// can branch with errors.Is without matching message text. Call sites
// wrap them with human-readable context (book title, limit, class).
var (
	ErrBookNotFound   = errors.New("book not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrLoanNotFound   = errors.New("loan not found")

	ErrBookUnavailable   = errors.New("no available copies")
	ErrLoanLimitExceeded = errors.New("loan limit exceeded")
	ErrAlreadyReturned   = errors.New("loan already returned")

	ErrBookExists        = errors.New("book with this isbn already exists")
	ErrBookHasLoans      = errors.New("book has copies on loan")
	ErrMemberHasLoans    = errors.New("member has active loans")
	ErrQuantityTooLow    = errors.New("quantity lower than copies currently issued")
	ErrInvalidMemberClass = errors.New("invalid member class")

	// ErrReleaseClamped reports a release that would have pushed
	// available past quantity; the counter is clamped, not corrupted.
	ErrReleaseClamped = errors.New("release clamped at total quantity")
)
