package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/admitguard-api/internal/models"
	"github.com/noah-isme/admitguard-api/internal/repository"
	appErrors "github.com/noah-isme/admitguard-api/pkg/errors"
)

type authUserRepository interface {
	Count(ctx context.Context) (int, error)
	CreateBootstrap(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type auditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type tokenIssuer interface {
	Issue(identity models.UserInfo, ttl time.Duration) (string, time.Time, error)
}

// AuthService provides the bootstrap signup and login use cases.
type AuthService struct {
	repo      authUserRepository
	tokens    tokenIssuer
	hasher    *PasswordHasher
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, tokens tokenIssuer, hasher *PasswordHasher, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if hasher == nil {
		hasher = NewPasswordHasher(0)
	}
	return &AuthService{repo: repo, tokens: tokens, hasher: hasher, audit: audit, metrics: metrics, validator: validate, logger: logger}
}

// Signup provisions the first administrator. Once any user exists signup is
// closed and fails regardless of the payload.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count users")
	}
	if count > 0 {
		return nil, appErrors.ErrSignupDisabled
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid signup payload")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.repo.CreateBootstrap(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrBootstrapClosed):
			return nil, appErrors.ErrSignupDisabled
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	s.logger.Info("bootstrap administrator created", zap.String("user_id", user.ID))
	s.metrics.RecordEvent(EventSignup)
	s.recordAudit(ctx, user.ID, models.AuditActionSignup, req.IP, req.UserAgent)

	return s.respond(user)
}

// Login authenticates a user and issues an access token carrying the stored role.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordEvent(EventLoginFailure)
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid email or password.")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	if !s.hasher.Matches(user.PasswordHash, req.Password) {
		s.metrics.RecordEvent(EventLoginFailure)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid email or password.")
	}

	s.metrics.RecordEvent(EventLoginSuccess)
	s.recordAudit(ctx, user.ID, models.AuditActionLogin, req.IP, req.UserAgent)

	return s.respond(user)
}

func (s *AuthService) respond(user *models.User) (*models.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.Info(), 0)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	return &models.AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user.Info(),
	}, nil
}

func (s *AuthService) recordAudit(ctx context.Context, userID, action, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Create(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "auth",
		ResourceID: &userID,
		NewValues:  []byte(`{"status":"success"}`),
		IPAddress:  ip,
		UserAgent:  userAgent,
	}); err != nil {
		s.logger.Warn("failed to record auth audit log", zap.String("action", action), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
