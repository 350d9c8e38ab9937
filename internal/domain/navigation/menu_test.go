package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leavestride/internal/domain/users"
)

func labels(items []NavItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Label)
	}
	return out
}

func TestMenuFor(t *testing.T) {
	tests := []struct {
		role users.Role
		want []string
	}{
		{users.RoleEmployee, []string{"Dashboard", "My Leaves", "Apply Leave", "Calendar", "Profile"}},
		{users.RoleManager, []string{"Dashboard", "My Leaves", "Apply Leave", "Team Leaves", "Approvals", "Calendar", "Profile"}},
		{users.RoleAdmin, []string{"Dashboard", "My Leaves", "Apply Leave", "All Leaves", "Users", "Reports", "Calendar", "Settings"}},
		{users.Role("INTERN"), []string{"Dashboard", "My Leaves", "Apply Leave", "Calendar", "Profile"}},
	}
	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.want, labels(MenuFor(tc.role)))
		})
	}
}

func TestMenuForReturnsIndependentSlices(t *testing.T) {
	first := MenuFor(users.RoleAdmin)
	first[0].Label = "changed"
	assert.Equal(t, "Dashboard", MenuFor(users.RoleAdmin)[0].Label)
}
