package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"leavestride/internal/domain/users"
)

const gateModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Gate answers role permission checks. ADMIN inherits MANAGER which inherits EMPLOYEE.
type Gate struct {
	enforcer *casbin.SyncedEnforcer
}

func NewGate() (*Gate, error) {
	m, err := model.NewModelFromString(gateModel)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			obj, act := splitPermission(perm)
			if _, err := enforcer.AddPolicy(string(role), obj, act); err != nil {
				return nil, fmt.Errorf("add policy %s %s: %w", role, perm, err)
			}
		}
	}
	for child, parent := range roleParents {
		if _, err := enforcer.AddGroupingPolicy(string(child), string(parent)); err != nil {
			return nil, fmt.Errorf("add role %s: %w", child, err)
		}
	}
	return &Gate{enforcer: enforcer}, nil
}

func splitPermission(perm string) (string, string) {
	obj, act, ok := strings.Cut(perm, ".")
	if !ok {
		return perm, ""
	}
	return obj, act
}

// HasPermission reports false for unknown roles.
func (g *Gate) HasPermission(_ context.Context, role, permission string) (bool, error) {
	if _, err := users.ParseRole(role); err != nil {
		return false, nil
	}
	obj, act := splitPermission(permission)
	return g.enforcer.Enforce(role, obj, act)
}

func (g *Gate) Allowed(role users.Role, permission string) bool {
	ok, err := g.HasPermission(context.Background(), string(role), permission)
	return err == nil && ok
}
