package domain

import "errors"

// Validation failures are client-fixable and map to 400.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidParameters  = validationError("provided parameters are invalid")
	ErrInvalidAmount      = validationError("amount must be a positive decimal")
	ErrInvalidStatus      = validationError("status field is invalid")
	ErrInvalidAccountType = validationError("account type must be paymentmethod or ecurrency")
)

// Not-found failures identify the missing resource and map to 404,
// except ErrAccountNotFound which the client remediates by adding an account.
var (
	ErrNotFound              = errors.New("not found")
	ErrAccountNotFound       = notFoundError("account not found")
	ErrOrderNotFound         = notFoundError("order does not exist")
	ErrCurrencyNotFound      = notFoundError("e-currency does not exist")
	ErrPaymentMethodNotFound = notFoundError("payment method does not exist")
	ErrUserNotFound          = notFoundError("user does not exist")
	ErrConfigNotFound        = notFoundError("site config has not been set")
)

var (
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOrderClosed       = errors.New("order is no longer pending")
	ErrConfigAmbiguous   = errors.New("multiple site config rows present")
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string        { return e.msg }
func (e *kindError) Is(target error) bool { return target == e.kind }

func validationError(msg string) error { return &kindError{msg: msg, kind: ErrValidation} }
func notFoundError(msg string) error   { return &kindError{msg: msg, kind: ErrNotFound} }
