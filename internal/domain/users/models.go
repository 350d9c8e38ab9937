package users

import (
	"strings"
	"time"

	"leavestride/internal/platform/apperr"
)

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

var Roles = []Role{RoleEmployee, RoleManager, RoleAdmin}

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	for _, candidate := range Roles {
		if role == candidate {
			return role, nil
		}
	}
	return "", apperr.Validation("invalid_role", "role must be one of EMPLOYEE, MANAGER, ADMIN")
}

const (
	FieldSick     = "sick"
	FieldCasual   = "casual"
	FieldVacation = "vacation"
	FieldAcademic = "academic"
)

// Balances holds remaining days per balance-tracked leave category.
type Balances struct {
	Sick     int `json:"sick" bson:"sick"`
	Casual   int `json:"casual" bson:"casual"`
	Vacation int `json:"vacation" bson:"vacation"`
	Academic int `json:"academic" bson:"academic"`
}

func DefaultBalances() Balances {
	return Balances{Sick: 12, Casual: 12, Vacation: 21, Academic: 5}
}

func (b Balances) Get(field string) int {
	switch field {
	case FieldSick:
		return b.Sick
	case FieldCasual:
		return b.Casual
	case FieldVacation:
		return b.Vacation
	case FieldAcademic:
		return b.Academic
	}
	return 0
}

func (b *Balances) Add(field string, delta int) {
	switch field {
	case FieldSick:
		b.Sick += delta
	case FieldCasual:
		b.Casual += delta
	case FieldVacation:
		b.Vacation += delta
	case FieldAcademic:
		b.Academic += delta
	}
}

func (b Balances) Valid() bool {
	return b.Sick >= 0 && b.Casual >= 0 && b.Vacation >= 0 && b.Academic >= 0
}

func ValidBalanceField(field string) bool {
	switch field {
	case FieldSick, FieldCasual, FieldVacation, FieldAcademic:
		return true
	}
	return false
}

type User struct {
	ID           string     `json:"id" bson:"_id"`
	FirstName    string     `json:"firstName" bson:"firstName"`
	LastName     string     `json:"lastName" bson:"lastName"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"passwordHash"`
	EmployeeID   string     `json:"employeeId" bson:"employeeId"`
	Role         Role       `json:"role" bson:"role"`
	Department   string     `json:"department" bson:"department"`
	ManagerID    string     `json:"managerId,omitempty" bson:"managerId,omitempty"`
	Balances     Balances   `json:"leaveBalances" bson:"leaveBalances"`
	IsActive     bool       `json:"isActive" bson:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`

	Manager *Summary `json:"manager,omitempty" bson:"-"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) Summary() Summary {
	return Summary{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		EmployeeID: u.EmployeeID,
		Department: u.Department,
	}
}

// Summary is the public projection embedded in other resources.
type Summary struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	EmployeeID string `json:"employeeId"`
	Department string `json:"department"`
}

type StatusFilter string

const (
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
	StatusAll      StatusFilter = "all"
)

type ListFilter struct {
	Search     string
	Department string
	Role       Role
	Status     StatusFilter
	// IDs restricts results when non-nil.
	IDs    []string
	Offset int
	Limit  int
}

type CreateInput struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Role       Role
	Department string
	ManagerID  string
	Balances   *Balances
}

type RegisterInput struct {
	FirstName  string
	LastName   string
	Email      string
	Password   string
	Department string
}

type UpdateInput struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Role       *Role
	Department *string
	ManagerID  *string
	Balances   *Balances
	IsActive   *bool
}
