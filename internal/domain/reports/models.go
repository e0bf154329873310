package reports

import "attendease/internal/domain/attendance"

// Summary is the dashboard payload: today's headline numbers plus the
// per-department rollup for the requested window.
type Summary struct {
	TotalEmployees      int                         `json:"totalEmployees"`
	ActiveEmployees     int                         `json:"activeEmployees"`
	PresentToday        int                         `json:"presentToday"`
	LateToday           int                         `json:"lateToday"`
	CheckedOutToday     int                         `json:"checkedOutToday"`
	AverageWorkingHours float64                     `json:"averageWorkingHours"`
	DepartmentStats     []attendance.DepartmentStat `json:"departmentStats"`
	Warnings            []attendance.Warning        `json:"warnings,omitempty"`
}
