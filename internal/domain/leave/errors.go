package leave

import "errors"

var (
	ErrNotFound            = errors.New("leave request not found")
	ErrOverlap             = errors.New("an overlapping pending or approved leave request already exists")
	ErrAlreadyProcessed    = errors.New("leave request has already been processed")
	ErrInvalidRange        = errors.New("invalid leave date range")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrNegativeBalance     = errors.New("adjustment would drive balance below zero")
	ErrUnknownType         = errors.New("leave type must be VL or SL")
)
