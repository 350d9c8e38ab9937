package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"leavestride/internal/domain/users"
)

// Directory is the subset of the user directory the auth flows need.
type Directory interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
	Lookup(ctx context.Context, id string) (users.User, error)
	Register(ctx context.Context, in users.RegisterInput) (users.User, error)
	TouchLastLogin(ctx context.Context, id string) error
	ResetPassword(ctx context.Context, id, password string) error
}

type ResetNotifier interface {
	PasswordReset(ctx context.Context, u users.User, link string)
}

type Tokens struct {
	User         users.User `json:"user"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
}

type Service struct {
	Directory   Directory
	Revocations Revocations
	Notifier    ResetNotifier
	Secret      string
	TokenTTL    time.Duration
	RefreshTTL  time.Duration
	ResetTTL    time.Duration
	FrontendURL string
	Now         func() time.Time
}

func NewService(dir Directory, revocations Revocations, secret string) *Service {
	return &Service{
		Directory:   dir,
		Revocations: revocations,
		Secret:      secret,
		TokenTTL:    24 * time.Hour,
		RefreshTTL:  7 * 24 * time.Hour,
		ResetTTL:    time.Hour,
		Now:         time.Now,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (Tokens, error) {
	u, err := s.Directory.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Tokens{}, ErrInvalidCredentials
		}
		return Tokens{}, err
	}
	if !users.CheckPassword(u.PasswordHash, password) {
		return Tokens{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return Tokens{}, ErrAccountDeactivated
	}
	if err := s.Directory.TouchLastLogin(ctx, u.ID); err != nil {
		slog.Warn("last login update failed", "user_id", u.ID, "err", err)
	} else {
		now := s.Now().UTC()
		u.LastLogin = &now
	}
	return s.issue(u)
}

// Register creates an EMPLOYEE account and signs it in.
func (s *Service) Register(ctx context.Context, in users.RegisterInput) (Tokens, error) {
	u, err := s.Directory.Register(ctx, in)
	if err != nil {
		return Tokens{}, err
	}
	return s.issue(u)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	claims, err := ParseTyped(s.Secret, refreshToken, TokenRefresh)
	if err != nil {
		return Tokens{}, err
	}
	if revoked, err := s.revoked(ctx, claims.ID); err != nil {
		return Tokens{}, err
	} else if revoked {
		return Tokens{}, ErrTokenRevoked
	}
	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return Tokens{}, err
	}
	if claims.ExpiresAt != nil {
		if err := s.Revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Warn("refresh token rotation failed", "user_id", u.ID, "err", err)
		}
	}
	return s.issue(u)
}

// Logout revokes the access token behind session until it expires.
func (s *Service) Logout(ctx context.Context, session Session) error {
	if session.TokenID == "" {
		return nil
	}
	return s.Revocations.Revoke(ctx, session.TokenID, session.ExpiresAt)
}

// Authenticate verifies an access token and resolves the caller's session.
func (s *Service) Authenticate(ctx context.Context, token string) (Session, error) {
	claims, err := s.VerifyAccess(ctx, token)
	if err != nil {
		return Session{}, err
	}
	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return Session{}, err
	}
	return NewSession(u, claims), nil
}

// VerifyAccess checks signature, type and revocation without touching the directory.
func (s *Service) VerifyAccess(ctx context.Context, token string) (*Claims, error) {
	claims, err := ParseTyped(s.Secret, token, TokenAccess)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (s *Service) revoked(ctx context.Context, tokenID string) (bool, error) {
	if s.Revocations == nil || tokenID == "" {
		return false, nil
	}
	return s.Revocations.Revoked(ctx, tokenID)
}

func (s *Service) activeUser(ctx context.Context, id string) (users.User, error) {
	u, err := s.Directory.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, ErrInvalidToken
		}
		return users.User{}, err
	}
	if !u.IsActive {
		return users.User{}, ErrAccountDeactivated
	}
	return u, nil
}

func (s *Service) issue(u users.User) (Tokens, error) {
	now := s.Now()
	token, err := GenerateToken(s.Secret, Claims{UserID: u.ID, Role: string(u.Role), Type: TokenAccess}, now, s.TokenTTL)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := GenerateToken(s.Secret, Claims{UserID: u.ID, Type: TokenRefresh}, now, s.RefreshTTL)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{User: u, Token: token, RefreshToken: refresh}, nil
}

// RequestReset emails a reset link to an active account. Unknown emails succeed silently.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	u, err := s.Directory.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil
		}
		return err
	}
	if !u.IsActive {
		return nil
	}
	token, err := GenerateToken(s.Secret, Claims{
		UserID:      u.ID,
		Type:        TokenReset,
		Fingerprint: passwordFingerprint(u.PasswordHash),
	}, s.Now(), s.ResetTTL)
	if err != nil {
		return err
	}
	if s.Notifier != nil {
		s.Notifier.PasswordReset(ctx, u, s.resetLink(token))
	}
	return nil
}

func (s *Service) resetLink(token string) string {
	base := strings.TrimRight(s.FrontendURL, "/")
	return base + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	claims, err := ParseTyped(s.Secret, token, TokenReset)
	if err != nil {
		return ErrInvalidResetToken
	}
	u, err := s.Directory.Lookup(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if !u.IsActive || claims.Fingerprint != passwordFingerprint(u.PasswordHash) {
		return ErrInvalidResetToken
	}
	return s.Directory.ResetPassword(ctx, u.ID, password)
}
