package holidays

import "leavestride/internal/platform/apperr"

var (
	ErrDuplicateDate = apperr.Conflict("duplicate_holiday", "Holiday already exists for this date")
	ErrNotFound      = apperr.NotFound("holiday_not_found", "Holiday not found")
	ErrNameRequired  = apperr.Validation("holiday_name_required", "Holiday name is required")
	ErrNameTooLong   = apperr.Validation("holiday_name_too_long", "Holiday name must be at most 100 characters")
	ErrDescTooLong   = apperr.Validation("holiday_description_too_long", "Description must be at most 300 characters")
	ErrDateRequired  = apperr.Validation("holiday_date_required", "Holiday date is required")
	ErrUnknownRegion = apperr.Validation("unknown_region", "Unknown holiday region")
	ErrForbidden     = apperr.Forbidden("forbidden", "Only administrators can manage holidays")
)
