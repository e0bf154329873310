package directory

import "errors"

var (
	ErrNotFound    = errors.New("employee not found")
	ErrDuplicateID = errors.New("employee id already exists")
)
