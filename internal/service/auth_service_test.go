package service_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/command-center/internal/auth"
	"github.com/spec-kit/command-center/internal/config"
	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/service"
)

type fakeAdmins struct {
	byEmail map[string]*domain.Admin
	created []*domain.Admin
}

func newFakeAdmins() *fakeAdmins {
	return &fakeAdmins{byEmail: map[string]*domain.Admin{}}
}

func (f *fakeAdmins) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	for _, admin := range f.byEmail {
		if admin.ID == id {
			return admin, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	admin, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return admin, nil
}

func (f *fakeAdmins) Create(_ context.Context, admin *domain.Admin) error {
	f.byEmail[admin.Email] = admin
	f.created = append(f.created, admin)
	return nil
}

func newAuthService(admins *fakeAdmins) *service.AuthService {
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            bcrypt.MinCost,
	}}
	return service.NewAuthService(cfg, admins)
}

func TestAuthService_SeedAdminCreatesALoginableAccount(t *testing.T) {
	admins := newFakeAdmins()
	svc := newAuthService(admins)
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx, "Event Admin", "ops@venue", "correct horse"))
	require.Len(t, admins.created, 1)
	require.True(t, admins.created[0].Active)
	require.NotEqual(t, "correct horse", admins.created[0].PasswordHash)

	admin, token, _, err := svc.LoginAdmin(ctx, "ops@venue", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "ops@venue", admin.Email)
	require.NotEmpty(t, token)

	_, _, _, err = svc.LoginAdmin(ctx, "ops@venue", "wrong")
	require.Error(t, err)
}

func TestAuthService_SeedAdminIsIdempotent(t *testing.T) {
	admins := newFakeAdmins()
	svc := newAuthService(admins)
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx, "Event Admin", "ops@venue", "correct horse"))
	require.NoError(t, svc.SeedAdmin(ctx, "Event Admin", "ops@venue", "another password"))

	require.Len(t, admins.created, 1)
	_, _, _, err := svc.LoginAdmin(ctx, "ops@venue", "correct horse")
	require.NoError(t, err)
}

func TestAuthService_SeedAdminSkippedWithoutCredentials(t *testing.T) {
	admins := newFakeAdmins()
	svc := newAuthService(admins)
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx, "Event Admin", "", "correct horse"))
	require.NoError(t, svc.SeedAdmin(ctx, "Event Admin", "ops@venue", ""))
	require.Empty(t, admins.created)
}

func TestAuthService_IssueTerminalTokenCarriesTheRoleAccount(t *testing.T) {
	svc := newAuthService(newFakeAdmins())

	token, exp, err := svc.IssueTerminalToken(domain.RoleAccountEntryGate)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, exp.IsZero())

	claims, err := auth.NewTokenManager("test-secret", 5).ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, domain.SubjectTypeTerminal, claims.Subject)
	require.Equal(t, domain.RoleAccountEntryGate, claims.RoleAccount)
}

func TestAuthService_IssueTerminalTokenRejectsUnknownAccount(t *testing.T) {
	svc := newAuthService(newFakeAdmins())

	_, _, err := svc.IssueTerminalToken("mystery-desk")
	require.Error(t, err)
}
