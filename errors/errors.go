package errors

import "fmt"

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrDuplicateSession = fmt.Errorf("session already registered")
	ErrSinkClosed       = fmt.Errorf("outbound sink closed")
	ErrSinkFull         = fmt.Errorf("outbound sink full")
	ErrServerFull       = fmt.Errorf("maximum client capacity reached")
)
