package auth

import "leavestride/internal/domain/users"

const (
	PermLeaveRead     = "leave.read"
	PermLeaveSubmit   = "leave.submit"
	PermLeaveUpdate   = "leave.update"
	PermLeaveDelete   = "leave.delete"
	PermLeaveDecide   = "leave.decide"
	PermHolidayRead   = "holiday.read"
	PermHolidayManage = "holiday.manage"
	PermProfileRead   = "profile.read"
	PermUserManagers  = "user.managers"
	PermUserRead      = "user.read"
	PermUserManage    = "user.manage"
	PermDashboardRead = "dashboard.read"
	PermReportExport  = "report.export"
)

// RolePermissions lists what each role adds on top of the roles it inherits.
var RolePermissions = map[users.Role][]string{
	users.RoleEmployee: {
		PermLeaveRead,
		PermLeaveSubmit,
		PermLeaveUpdate,
		PermLeaveDelete,
		PermHolidayRead,
		PermProfileRead,
		PermUserManagers,
	},
	users.RoleManager: {
		PermLeaveDecide,
		PermUserRead,
		PermDashboardRead,
	},
	users.RoleAdmin: {
		PermUserManage,
		PermHolidayManage,
		PermReportExport,
	},
}

// roleParents maps a role to the role it inherits from.
var roleParents = map[users.Role]users.Role{
	users.RoleManager: users.RoleEmployee,
	users.RoleAdmin:   users.RoleManager,
}
