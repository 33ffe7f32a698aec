package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("invalid state for transition")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrCourseUnavailable  = errors.New("course is not available for purchase")
	ErrFreeCourse         = errors.New("course is free")
	ErrAlreadyEnrolled    = errors.New("already enrolled")

	// ErrInvoiceNumberConflict signals that a generated invoice number is already taken.
	ErrInvoiceNumberConflict = errors.New("invoice number conflict")
	// ErrJobNotQueued accompanies a committed transition whose settlement job could not be
	// published. The order can be resettled later.
	ErrJobNotQueued = errors.New("settlement job not queued")
	// ErrInvoiceNumberExhausted is returned once every numbering attempt collided.
	ErrInvoiceNumberExhausted = errors.New("invoice numbering attempts exhausted")
)
