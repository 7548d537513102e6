package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"complaintdesk/internal/auth"
	apperrors "complaintdesk/internal/errors"
	"complaintdesk/internal/model"
)

// SessionWriter persists the logged-in user. session.Store satisfies it.
type SessionWriter interface {
	Begin(ctx context.Context, user *model.User) error
	End(ctx context.Context) error
}

// AuthService handles authentication operations.
type AuthService interface {
	Login(ctx context.Context, name, email string) (accessToken string, user *model.User, err error)
	Logout(ctx context.Context, tokenID string, ttl time.Duration) error
}

type authService struct {
	session     SessionWriter
	jwtService  *auth.JWTService
	revocations auth.RevocationList
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service. jwtService and
// revocations may be nil when no tokens are issued, as in the CLI.
func NewAuthService(session SessionWriter, jwtService *auth.JWTService, revocations auth.RevocationList, logger *zap.Logger) AuthService {
	return &authService{
		session:     session,
		jwtService:  jwtService,
		revocations: revocations,
		validator:   model.NewValidator(),
		logger:      logger,
	}
}

// UserID derives a stable id from email so the same person logging in twice
// keeps ownership of their complaints.
func UserID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(strings.TrimSpace(email)))).String()
}

// Login starts a session for name and email. There are no credentials to
// check; any well-formed identity is accepted.
func (s *authService) Login(ctx context.Context, name, email string) (string, *model.User, error) {
	user := &model.User{
		ID:    UserID(email),
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
	}
	if err := s.validator.Struct(user); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return "", nil, fmt.Errorf("validate user: %w", err)
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return "", nil, &apperrors.ValidationError{Fields: fields}
	}

	if err := s.session.Begin(ctx, user); err != nil {
		return "", nil, err
	}

	if s.jwtService == nil {
		s.logger.Info("session started", zap.String("user_id", user.ID))
		return "", user, nil
	}
	tokenID, token, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("generate access token: %w", err)
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("token_id", tokenID))
	return token, user, nil
}

// Logout ends the session and revokes tokenID for the rest of its lifetime.
// An empty tokenID only ends the session.
func (s *authService) Logout(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := s.session.End(ctx); err != nil {
		return err
	}
	if tokenID == "" || s.revocations == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, tokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
