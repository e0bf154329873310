package attendance

import "errors"

var (
	ErrUnknownEmployee  = errors.New("employee not found in directory")
	ErrInactiveEmployee = errors.New("employee is not active")
)
