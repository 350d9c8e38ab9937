package auth

import "leavestride/internal/platform/apperr"

var (
	ErrInvalidCredentials = apperr.Unauthenticated("invalid_credentials", "Invalid credentials")
	ErrAccountDeactivated = apperr.Unauthenticated("account_deactivated", "Account is deactivated")
	ErrInvalidToken       = apperr.Unauthenticated("invalid_token", "Invalid or expired token")
	ErrTokenRevoked       = apperr.Unauthenticated("token_revoked", "Token has been revoked")
	ErrInvalidResetToken  = apperr.Validation("invalid_reset_token", "Reset link is invalid or has expired")
)
