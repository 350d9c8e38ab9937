// Package navigation derives the client menu from a role.
package navigation

import "leavestride/internal/domain/users"

type NavItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon"`
}

var (
	dashboard   = NavItem{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", Icon: "home"}
	myLeaves    = NavItem{Key: "my-leaves", Label: "My Leaves", Path: "/leaves", Icon: "list"}
	applyLeave  = NavItem{Key: "apply-leave", Label: "Apply Leave", Path: "/leaves/new", Icon: "plus"}
	teamLeaves  = NavItem{Key: "team-leaves", Label: "Team Leaves", Path: "/team/leaves", Icon: "users"}
	approvals   = NavItem{Key: "approvals", Label: "Approvals", Path: "/approvals", Icon: "check"}
	allLeaves   = NavItem{Key: "all-leaves", Label: "All Leaves", Path: "/admin/leaves", Icon: "list"}
	userAdmin   = NavItem{Key: "users", Label: "Users", Path: "/admin/users", Icon: "user"}
	reportsPage = NavItem{Key: "reports", Label: "Reports", Path: "/admin/reports", Icon: "chart"}
	calendar    = NavItem{Key: "calendar", Label: "Calendar", Path: "/calendar", Icon: "calendar"}
	profile     = NavItem{Key: "profile", Label: "Profile", Path: "/profile", Icon: "user"}
	settings    = NavItem{Key: "settings", Label: "Settings", Path: "/admin/settings", Icon: "settings"}
)

// MenuFor returns a fresh slice; unknown roles get the employee menu.
func MenuFor(role users.Role) []NavItem {
	switch role {
	case users.RoleAdmin:
		return []NavItem{dashboard, myLeaves, applyLeave, allLeaves, userAdmin, reportsPage, calendar, settings}
	case users.RoleManager:
		return []NavItem{dashboard, myLeaves, applyLeave, teamLeaves, approvals, calendar, profile}
	}
	return []NavItem{dashboard, myLeaves, applyLeave, calendar, profile}
}
