package directory

import (
	"time"

	"attendease/internal/domain/attendance"
)

// Employee is the directory's full view of a person: the engine contract
// fields plus bookkeeping timestamps.
type Employee struct {
	attendance.Employee
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
