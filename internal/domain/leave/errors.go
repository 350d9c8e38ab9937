package leave

import "leavestride/internal/platform/apperr"

var (
	ErrNotFound            = apperr.NotFound("leave_not_found", "Leave request not found")
	ErrForbidden           = apperr.Forbidden("forbidden", "Not authorized to perform this action")
	ErrInvalidRange        = apperr.Validation("invalid_range", "From date must be before to date")
	ErrPastDate            = apperr.Validation("past_date", "Cannot apply for leave in the past")
	ErrNoWorkingDays       = apperr.Rule("no_working_days", "No working days in the selected date range")
	ErrOverlap             = apperr.Conflict("leave_overlap", "Leave request overlaps with existing leave")
	ErrInsufficientBalance = apperr.Rule("insufficient_balance", "Insufficient leave balance")
	ErrInvalidState        = apperr.Rule("invalid_state", "Leave request is no longer pending")
	ErrReasonRequired      = apperr.Validation("reason_required", "Reason is required")
	ErrReasonTooLong       = apperr.Validation("reason_too_long", "Reason must be at most 500 characters")
	ErrCommentTooLong      = apperr.Validation("comment_too_long", "Comment must be at most 200 characters")
	ErrInvalidTarget       = apperr.Validation("invalid_status", "status must be one of APPROVED, REJECTED, CANCELLED")
)

func insufficient(t LeaveType, available int) error {
	return ErrInsufficientBalance.WithMessagef("Insufficient %s leave balance. Available: %d days", t.Label(), available)
}
