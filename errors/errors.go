package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrAlreadyRegistered  = fmt.Errorf("connection already registered")
	ErrLineTooLong        = fmt.Errorf("line exceeds maximum length")
	ErrEmptyName          = fmt.Errorf("empty display name")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrServerNotListening = fmt.Errorf("server is not listening")
)
