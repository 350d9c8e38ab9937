package users

// Actor is the caller of a directory operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) IsManager() bool { return a.Role == RoleManager }
