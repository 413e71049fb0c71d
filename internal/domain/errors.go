package domain

import "errors"

var (
	ErrValidation             = errors.New("validation failed")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrInvalidState           = errors.New("operation not allowed in current state")
	ErrNotFound               = errors.New("not found")
	ErrAlreadyTerminal        = errors.New("order is already in a terminal status")
	ErrAlreadyResponded       = errors.New("notification has already been responded to")
	ErrConcurrentModification = errors.New("order was modified concurrently")
	ErrStorage                = errors.New("storage failure")
)
