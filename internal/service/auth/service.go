// Package auth verifies credentials, issues session tokens and checks them on each request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskvault/internal/config"
	"taskvault/pkg/metrics"
	"taskvault/pkg/util"
)

var (
	ErrMissingCredential  = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

// Session is what a valid token proves.
type Session struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	verifier     CredentialVerifier
	limiter      Limiter
	allowedEmail string
	secret       string
	ttl          time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewService wires the login flow. limiter may be nil to disable throttling.
func NewService(cfg config.AuthConfig, secret string, verifier CredentialVerifier, limiter Limiter, logger *zap.Logger) *Service {
	return &Service{
		verifier:     verifier,
		limiter:      limiter,
		allowedEmail: strings.TrimSpace(cfg.AllowedEmail),
		secret:       secret,
		ttl:          cfg.SessionTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// NewVerifier builds the verifier named by cfg.Strategy.
func NewVerifier(ctx context.Context, cfg config.AuthConfig) (CredentialVerifier, error) {
	switch cfg.Strategy {
	case config.StrategyStatic:
		return NewStaticVerifier(cfg.Email, cfg.Password), nil
	case config.StrategyBcrypt:
		return NewBcryptVerifier(cfg.Email, cfg.PasswordHash), nil
	case config.StrategyIdentity:
		return NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentials)
	default:
		return nil, fmt.Errorf("unknown auth strategy %q", cfg.Strategy)
	}
}

// SessionTTL is the lifetime of issued tokens and cookies.
func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}

// Login verifies cred and returns a signed session token.
// client identifies the caller for throttling, normally its IP.
func (s *Service) Login(ctx context.Context, cred Credential, client string) (string, *Session, error) {
	if s.limiter != nil {
		ok, err := s.limiter.Allowed(ctx, client)
		if err != nil {
			// Redis 不可用时放行
			s.logger.Warn("login limiter unavailable", zap.Error(err))
		} else if !ok {
			metrics.IncrementLoginAttempt("throttled")
			return "", nil, ErrTooManyAttempts
		}
	}

	email, err := s.verifier.Verify(ctx, cred)
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "", nil, err
	case errors.Is(err, ErrInvalidCredentials):
		s.recordFailure(ctx, client, "invalid")
		s.logger.Info("login rejected", zap.String("client", client), zap.Error(err))
		return "", nil, ErrInvalidCredentials
	case err != nil:
		return "", nil, fmt.Errorf("verify credential: %w", err)
	}

	if !s.allowed(email) {
		s.recordFailure(ctx, client, "forbidden")
		s.logger.Warn("login from non allow-listed identity", zap.String("email", email))
		return "", nil, ErrForbidden
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, client); err != nil {
			s.logger.Warn("reset login attempts failed", zap.Error(err))
		}
	}

	now := s.now()
	token, err := util.GenerateJWT(email, s.secret, s.ttl, now)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	metrics.IncrementLoginAttempt("success")
	return token, &Session{Email: email, ExpiresAt: now.Add(s.ttl)}, nil
}

// Authorize checks a session token. Every malformed, expired or foreign token
// is ErrUnauthorized; a valid token for another email is ErrForbidden.
func (s *Service) Authorize(token string) (*Session, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := util.ParseJWT(token, s.secret)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !s.allowed(claims.Email) {
		return nil, ErrForbidden
	}
	return &Session{Email: claims.Email, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *Service) allowed(email string) bool {
	return s.allowedEmail != "" && strings.EqualFold(strings.TrimSpace(email), s.allowedEmail)
}

func (s *Service) recordFailure(ctx context.Context, client, result string) {
	metrics.IncrementLoginAttempt(result)
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Fail(ctx, client); err != nil {
		s.logger.Warn("record failed login", zap.Error(err))
	}
}
