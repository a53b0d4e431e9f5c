package service

import "errors"

// Sentinel errors returned by services. Handlers map these to HTTP statuses
// with errors.Is; anything unrecognized is treated as a dependency failure.
var (
	ErrVendorNotFound   = errors.New("vendor not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrReportNotFound   = errors.New("no report for the requested date")

	ErrInvalidDate      = errors.New("invalid date: expected YYYY-MM-DD")
	ErrInvalidDateRange = errors.New("end_date must not be before start_date")
	ErrInvalidEventType = errors.New("invalid event type")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrInvalidStatus    = errors.New("invalid status transition")

	ErrForbidden = errors.New("access denied for the requested vendor")

	ErrEmailTaken        = errors.New("email already exists")
	ErrUsernameTaken     = errors.New("username already exists")
	ErrStoreNameTaken    = errors.New("store name already exists")
	ErrVendorExists      = errors.New("user already has a vendor profile")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrInsufficientStock = errors.New("insufficient stock")
)
