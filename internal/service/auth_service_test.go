package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/admitguard-api/internal/models"
	appErrors "github.com/noah-isme/admitguard-api/pkg/errors"
)

func newTestAuthService(t *testing.T, repo *mockUserRepo, audit *mockAudit) (*AuthService, *TokenService) {
	t.Helper()
	tokens := newTestTokenService(t, "HS256")
	svc := NewAuthService(repo, tokens, NewPasswordHasher(bcrypt.MinCost), audit, NewMetricsService(), validator.New(), zap.NewNop())
	return svc, tokens
}

func TestSignupBootstrapsAdminOnce(t *testing.T) {
	repo := &mockUserRepo{}
	audit := &mockAudit{}
	svc, tokens := newTestAuthService(t, repo, audit)
	ctx := context.Background()

	res, err := svc.Signup(ctx, models.SignupRequest{Name: "Alice", Email: "A@X.com", Password: "pw12345678"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.Equal(t, "bearer", res.TokenType)

	claims, err := tokens.Validate(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = svc.Signup(ctx, models.SignupRequest{Name: "Bob", Email: "b@x.com", Password: "pw12345678"})
	assert.ErrorIs(t, err, appErrors.ErrSignupDisabled)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSignup, audit.logs[0].Action)
}

func TestSignupClosedIgnoresPayloadValidity(t *testing.T) {
	repo := &mockUserRepo{users: []*models.User{{ID: "u1", Email: "a@x.com", Role: models.RoleAdmin}}}
	svc, _ := newTestAuthService(t, repo, nil)

	_, err := svc.Signup(context.Background(), models.SignupRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 403, appErr.Status)
	assert.Equal(t, "Signup is disabled. Contact your administrator.", appErr.Message)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{}, nil)

	_, err := svc.Signup(context.Background(), models.SignupRequest{Name: "Alice", Email: "a@x.com", Password: "short"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSignupConcurrentOnlyOneWins(t *testing.T) {
	repo := &mockUserRepo{}
	svc, _ := newTestAuthService(t, repo, nil)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Signup(context.Background(), models.SignupRequest{Name: "User", Email: "u@x.com", Password: "pw12345678"})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, appErrors.ErrSignupDisabled)
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, repo.users, 1)
}

func TestSignupStoreFailure(t *testing.T) {
	svc, _ := newTestAuthService(t, &mockUserRepo{countErr: errors.New("db down")}, nil)

	_, err := svc.Signup(context.Background(), models.SignupRequest{Name: "Alice", Email: "a@x.com", Password: "pw12345678"})
	assert.Equal(t, 500, appErrors.FromError(err).Status)
}

func TestLoginEmbedsStoredRole(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw12345678"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: "0b5d3c5e-3a0e-4f57-9a55-1c2f0b8f7a12", Name: "Mia", Email: "m@x.com", PasswordHash: string(hash), Role: models.RoleManager}
	repo := &mockUserRepo{users: []*models.User{user}}
	audit := &mockAudit{}
	svc, tokens := newTestAuthService(t, repo, audit)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "M@x.com", Password: "pw12345678", IP: "10.0.0.1"})
	require.NoError(t, err)
	claims, err := tokens.Validate(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, claims.Role)

	// a later role change is not reflected in the issued token
	user.Role = models.RoleUser
	claims, err = tokens.Validate(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, claims.Role)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "10.0.0.1", audit.logs[0].IPAddress)
}

func TestLoginInvalidCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw12345678"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockUserRepo{users: []*models.User{{ID: "u1", Email: "m@x.com", PasswordHash: string(hash), Role: models.RoleUser}}}
	svc, _ := newTestAuthService(t, repo, nil)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "m@x.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Equal(t, "Invalid email or password.", appErrors.FromError(err).Message)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@x.com", Password: "pw12345678"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginAuditFailureIsNotFatal(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw12345678"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockUserRepo{users: []*models.User{{ID: "0b5d3c5e-3a0e-4f57-9a55-1c2f0b8f7a13", Email: "m@x.com", PasswordHash: string(hash), Role: models.RoleUser}}}
	svc, _ := newTestAuthService(t, repo, &mockAudit{err: errors.New("audit down")})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "m@x.com", Password: "pw12345678"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, 2*time.Second)
}
