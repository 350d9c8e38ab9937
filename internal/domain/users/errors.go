package users

import "leavestride/internal/platform/apperr"

var (
	ErrNotFound          = apperr.NotFound("user_not_found", "User not found")
	ErrEmailTaken        = apperr.Conflict("email_taken", "User already exists with this email")
	ErrEmployeeIDTaken   = apperr.Conflict("employee_id_taken", "Employee id already exists")
	ErrNegativeBalance   = apperr.Validation("negative_balance", "Leave balances must be non-negative")
	ErrSelfDeactivation  = apperr.Rule("self_deactivation", "You cannot deactivate your own account")
	ErrSelfDelete        = apperr.Rule("self_delete", "You cannot delete your own account")
	ErrSelfManager       = apperr.Validation("self_manager", "A user cannot be their own manager")
	ErrManagerNotFound   = apperr.Validation("manager_not_found", "Manager not found")
	ErrForbidden         = apperr.Forbidden("forbidden", "You do not have access to this user")
	ErrSignupDisabled    = apperr.Forbidden("signup_disabled", "Self registration is disabled")
	ErrPasswordTooShort  = apperr.Validation("password_too_short", "Password must be at least 6 characters")
	ErrEmployeeIDRetries = apperr.New(apperr.KindInternal, "employee_id_exhausted", "Could not allocate an employee id")
)
