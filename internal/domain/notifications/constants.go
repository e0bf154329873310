package notifications

const (
	TypeLateArrival     = "late_arrival"
	TypeBackupRestored  = "backup_restored"
	TypeEmployeeCreated = "employee_created"
)
