package service

import (
	"context"
	"strings"
	"time"

	"outreach_backend/internal/auth/token"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Sessions opens and closes operator sessions.
type Sessions interface {
	OpenSession() uuid.UUID
	CloseSession(id uuid.UUID) bool
}

// Unlocked is the result of a successful PIN unlock.
type Unlocked struct {
	SessionID   uuid.UUID
	AccessToken string
	ExpiresAt   time.Time
}

type Service struct {
	cfg      config.AuthConfig
	sessions Sessions
	log      *logger.Logger
	now      func() time.Time
}

func New(cfg config.AuthConfig, sessions Sessions, log *logger.Logger) *Service {
	return &Service{cfg: cfg, sessions: sessions, log: log, now: time.Now}
}

// Unlock checks the operator PIN and opens a new session.
func (s *Service) Unlock(ctx context.Context, pin, clientIP string) (Unlocked, error) {
	hash := s.cfg.GetOperatorPINHash()
	if hash == "" {
		return Unlocked{}, apperr.Internal("operator pin is not configured")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(pin))); err != nil {
		s.log.WithContext(ctx).UnlockAttempt(clientIP, false)
		return Unlocked{}, apperr.Unauthorized("invalid pin")
	}

	sessionID := s.sessions.OpenSession()
	accessToken, expiresAt, err := token.Sign(sessionID, s.cfg.GetJWTAccessSecret(), s.cfg.GetSessionTTL(), s.now())
	if err != nil {
		s.sessions.CloseSession(sessionID)
		return Unlocked{}, apperr.Wrap(apperr.KindInternal, "failed to issue token", err)
	}

	s.log.WithSession(sessionID.String()).UnlockAttempt(clientIP, true)
	return Unlocked{SessionID: sessionID, AccessToken: accessToken, ExpiresAt: expiresAt}, nil
}

// Lock closes the session. Locking an already closed session is not an error.
func (s *Service) Lock(sessionID uuid.UUID) {
	s.sessions.CloseSession(sessionID)
}

// HashPIN returns the bcrypt hash to put in OPERATOR_PIN_HASH.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(pin)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
