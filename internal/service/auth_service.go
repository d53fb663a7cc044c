package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/clock"
	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/internal/events"
	"github.com/helpdeskhq/helpdesk/internal/repository"
	"github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

// SignupInput is the submitted signup form.
type SignupInput struct {
	Name            string `json:"name" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginInput is the submitted login form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupResult holds the new account and the session to establish for it.
type SignupResult struct {
	User    *domain.User
	Session domain.SessionInfo
}

// AuthService is the user directory: signup, login and logout.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
	bcryptCost int
	sessionTTL time.Duration
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), c),
		dispatcher: deps.Dispatcher,
		clock:      c,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		sessionTTL: cfg.Session.TTL(),
	}
}

// Signup validates the form, rejects a duplicate email and stores a new user
// with a hashed password.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateInput(input, signupMessages); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, errEmailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    now.Format(domain.UserTimeLayout),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, errEmailTaken()
		}
		s.logger.Error("failed to persist user", zap.Error(err))
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserSignedUp,
		UserID:  user.ID,
		Payload: events.UserSignedUpPayload{Name: user.Name, Email: user.Email},
	})

	return &SignupResult{User: user, Session: s.sessionFor(user)}, nil
}

// Login checks credentials. Unknown emails and wrong passwords produce the same
// INVALID_CREDENTIALS error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.SessionInfo, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := validateInput(input, loginMessages); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorutil.NewInvalidCredentials()
		}
		return nil, err
	}
	if !auth.PasswordMatches(user.PasswordHash, input.Password) {
		return nil, errorutil.NewInvalidCredentials()
	}

	info := s.sessionFor(user)
	return &info, nil
}

// Logout destroys all session state. It is safe to call on an empty session.
func (s *AuthService) Logout(bag auth.SessionBag) error {
	return auth.Destroy(bag)
}

// IssueToken signs a bearer token for the JSON API.
func (s *AuthService) IssueToken(info domain.SessionInfo) (string, time.Time, error) {
	return s.tokens.GenerateToken(info)
}

// Authenticate resolves a bearer token into the caller identity.
func (s *AuthService) Authenticate(token string) (*domain.SessionInfo, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, errorutil.NewUnauthenticated("invalid or expired token")
	}
	info := claims.SessionInfo()
	return &info, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) sessionFor(user *domain.User) domain.SessionInfo {
	return domain.SessionInfo{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		ExpiresAt: s.clock.Now().Add(s.sessionTTL),
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, s.clock, event)
}

func errEmailTaken() error {
	return errorutil.NewConflict(errorutil.CodeEmailTaken, "Email already registered")
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, c clock.Clock, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = c.Now()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
