package domain

import "errors"

// Sentinel errors for the core. Callers wrap with fmt.Errorf("%w: ...") and
// the HTTP boundary maps them to status codes in one place.
var (
	ErrValidation        = errors.New("validation failed")
	ErrOutOfStock        = errors.New("out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrNetwork           = errors.New("network failure")
	ErrStorage           = errors.New("storage failure")
	ErrNotFound          = errors.New("not found")
)
