package common

import "golang.org/x/xerrors"

// Error kinds callers are expected to match with errors.Is. Validation
// messages are user facing, everything else maps to a server error at the
// API layer.
var (
	// payment rails
	ErrPaymentFailed       = xerrors.New("payment failed")
	ErrPaymentIntentFailed = xerrors.New("payment intent failed")
	ErrInsufficientFunds   = xerrors.New("you are not allowed to spend that amount of coins")
	ErrRefundFailed        = xerrors.New("refund failed")
	ErrMethodNotSupported  = xerrors.New("payment method not supported")

	// concurrency
	ErrLockFailed = xerrors.New("lock could not be acquired")

	// invariants
	ErrIncorrectBoostStatus = xerrors.New("boost is not in the expected status")
	ErrAlreadyProcessed     = xerrors.New("event already processed")
	ErrAddressMismatch      = xerrors.New("event does not match contract address")

	// access
	ErrForbidden = xerrors.New("forbidden")

	// lookups
	ErrBoostNotFound     = xerrors.New("boost not found")
	ErrEntityNotFound    = xerrors.New("entity not found")
	ErrSupermindNotFound = xerrors.New("supermind request not found")
)

// ValidationError carries a user facing message for a rejected request. No
// state is mutated when one of these is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Message: xerrors.Errorf(format, args...).Error()}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return xerrors.As(err, &ve)
}
