package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/command-center/internal/auth"
	"github.com/spec-kit/command-center/internal/config"
	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/repository"
)

// AuthService coordinates dashboard login flows. It covers session
// authentication only; the commit-time confirmation secret is a separate gate
// handled by the coordinator.
type AuthService struct {
	admins     repository.AdminRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, admins repository.AdminRepository) *AuthService {
	return &AuthService{
		admins:     admins,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// SeedAdmin creates the bootstrap administrator when none with the given email
// exists. A no-op when the email or password is unset, or when the admin is
// already there, so restarts never duplicate or overwrite accounts.
func (s *AuthService) SeedAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("look up seed admin: %w", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash seed admin password: %w", err)
	}

	now := time.Now()
	return s.admins.Create(ctx, &domain.Admin{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// LoginAdmin authenticates a dashboard administrator.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*domain.Admin, string, time.Time, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	if !admin.Active {
		return nil, "", time.Time{}, errors.New("admin inactive")
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(admin.ID, domain.SubjectTypeAdmin, "")
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return admin, token, exp, nil
}

// IssueTerminalToken signs a token for a staff terminal operating under a
// shared RoleAccount. Terminal identity is the role account, not a person.
func (s *AuthService) IssueTerminalToken(account domain.RoleAccount) (string, time.Time, error) {
	if !account.Valid() {
		return "", time.Time{}, errors.New("unknown role account")
	}
	return s.tokenMgr.GenerateToken(string(account), domain.SubjectTypeTerminal, account)
}

// TokenManager exposes the underlying manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
