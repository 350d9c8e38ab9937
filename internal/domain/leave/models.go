package leave

import (
	"strings"
	"time"

	"leavestride/internal/domain/users"
	"leavestride/internal/platform/apperr"
)

type LeaveType string

const (
	TypeSick     LeaveType = "SICK"
	TypeCasual   LeaveType = "CASUAL"
	TypeVacation LeaveType = "VACATION"
	TypeAcademic LeaveType = "ACADEMIC"
	TypeWFH      LeaveType = "WFH"
	TypeCompOff  LeaveType = "COMP_OFF"
)

var LeaveTypes = []LeaveType{TypeSick, TypeCasual, TypeVacation, TypeAcademic, TypeWFH, TypeCompOff}

func ParseLeaveType(raw string) (LeaveType, error) {
	t := LeaveType(strings.ToUpper(strings.TrimSpace(raw)))
	for _, candidate := range LeaveTypes {
		if t == candidate {
			return t, nil
		}
	}
	return "", apperr.Validation("invalid_leave_type", "leaveType must be one of SICK, CASUAL, VACATION, ACADEMIC, WFH, COMP_OFF")
}

// BalanceField maps a balance-tracked type to its ledger field.
func (t LeaveType) BalanceField() (string, bool) {
	switch t {
	case TypeSick:
		return users.FieldSick, true
	case TypeCasual:
		return users.FieldCasual, true
	case TypeVacation:
		return users.FieldVacation, true
	case TypeAcademic:
		return users.FieldAcademic, true
	}
	return "", false
}

func (t LeaveType) Label() string {
	switch t {
	case TypeWFH:
		return "work from home"
	case TypeCompOff:
		return "comp off"
	}
	return strings.ToLower(string(t))
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	for _, candidate := range Statuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", apperr.Validation("invalid_status", "status must be one of PENDING, APPROVED, REJECTED, CANCELLED")
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

type HistoryAction string

const (
	ActionPending   = HistoryAction(StatusPending)
	ActionApproved  = HistoryAction(StatusApproved)
	ActionRejected  = HistoryAction(StatusRejected)
	ActionCancelled = HistoryAction(StatusCancelled)
	ActionUpdated   HistoryAction = "UPDATED"
)

type HistoryEntry struct {
	Action  HistoryAction `json:"action" bson:"action"`
	By      string        `json:"by" bson:"by"`
	At      time.Time     `json:"at" bson:"at"`
	Comment string        `json:"comment,omitempty" bson:"comment,omitempty"`
}

type Request struct {
	ID         string         `json:"id" bson:"_id"`
	UserID     string         `json:"userId" bson:"userId"`
	LeaveType  LeaveType      `json:"leaveType" bson:"leaveType"`
	From       time.Time      `json:"from" bson:"from"`
	To         time.Time      `json:"to" bson:"to"`
	Days       int            `json:"days" bson:"days"`
	Reason     string         `json:"reason" bson:"reason"`
	Status     Status         `json:"status" bson:"status"`
	ApproverID string         `json:"approverId,omitempty" bson:"approverId,omitempty"`
	History    []HistoryEntry `json:"history" bson:"history"`
	DeletedAt  *time.Time     `json:"-" bson:"deletedAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt" bson:"updatedAt"`

	User     *users.Summary `json:"user,omitempty" bson:"-"`
	Approver *users.Summary `json:"approver,omitempty" bson:"-"`
}

type SubmitInput struct {
	LeaveType LeaveType
	From      time.Time
	To        time.Time
	Reason    string
}

type TransitionInput struct {
	Status  Status
	Comment string
}

type ListFilter struct {
	Status    Status
	LeaveType LeaveType
	// Start and End bound the request range: from >= Start and to <= End.
	Start time.Time
	End   time.Time
	// OverlapFrom and OverlapTo select requests intersecting the window.
	OverlapFrom time.Time
	OverlapTo   time.Time
	// UserIDs restricts owners when non-nil.
	UserIDs []string
	Offset  int
	Limit   int
}

type Page struct {
	Items []Request
	Total int
}

// Transition is an atomic status change applied by the store.
type Transition struct {
	RequestID  string
	UserID     string
	To         Status
	ApproverID string
	Entry      HistoryEntry
	// DebitField names the balance to decrement by Days; empty means none.
	DebitField string
	Days       int
	At         time.Time
}

// Counts feeds the admin dashboard.
type Counts struct {
	Pending           int `json:"pendingApprovals"`
	Total             int `json:"totalLeaveRequests"`
	ApprovedThisMonth int `json:"approvedThisMonth"`
	RejectedThisMonth int `json:"rejectedThisMonth"`
}
