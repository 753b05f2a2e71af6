package service

import (
	"context"
	"testing"
	"time"

	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type authConfig struct {
	hash   string
	secret string
}

func (a authConfig) GetOperatorPINHash() string           { return a.hash }
func (a authConfig) GetJWTAccessSecret() string           { return a.secret }
func (a authConfig) GetSessionTTL() time.Duration         { return 12 * time.Hour }
func (a authConfig) GetSessionIdleTimeout() time.Duration { return 2 * time.Hour }
func (a authConfig) GetUnlockRatePerMinute() int          { return 5 }

type fakeSessions struct {
	opened []uuid.UUID
	closed []uuid.UUID
}

func (f *fakeSessions) OpenSession() uuid.UUID {
	id := uuid.New()
	f.opened = append(f.opened, id)
	return id
}

func (f *fakeSessions) CloseSession(id uuid.UUID) bool {
	f.closed = append(f.closed, id)
	return true
}

func newTestService(t *testing.T) (*Service, *fakeSessions) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("4321"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	sessions := &fakeSessions{}
	svc := New(authConfig{hash: string(hash), secret: "s3cret"}, sessions, logger.Discard())
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return svc, sessions
}

func TestUnlockIssuesSessionToken(t *testing.T) {
	svc, sessions := newTestService(t)

	unlocked, err := svc.Unlock(context.Background(), " 4321 ", "10.0.0.1")
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if len(sessions.opened) != 1 || sessions.opened[0] != unlocked.SessionID {
		t.Fatalf("expected one opened session, got %v", sessions.opened)
	}
	if want := svc.now().Add(12 * time.Hour); !unlocked.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, unlocked.ExpiresAt)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(unlocked.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("s3cret"), nil
	}, jwt.WithTimeFunc(svc.now))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims["sid"] != unlocked.SessionID.String() || claims["type"] != "access" {
		t.Fatalf("unexpected claims %v", claims)
	}
}

func TestUnlockRejectsWrongPIN(t *testing.T) {
	svc, sessions := newTestService(t)

	_, err := svc.Unlock(context.Background(), "0000", "10.0.0.1")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(sessions.opened) != 0 {
		t.Fatal("wrong pin must not open a session")
	}
}

func TestUnlockWithoutConfiguredPIN(t *testing.T) {
	svc := New(authConfig{secret: "s3cret"}, &fakeSessions{}, logger.Discard())
	if _, err := svc.Unlock(context.Background(), "4321", "10.0.0.1"); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestLockClosesSession(t *testing.T) {
	svc, sessions := newTestService(t)
	id := uuid.New()
	svc.Lock(id)
	if len(sessions.closed) != 1 || sessions.closed[0] != id {
		t.Fatalf("expected %s closed, got %v", id, sessions.closed)
	}
}

func TestHashPINRoundTrip(t *testing.T) {
	hash, err := HashPIN("2468")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("2468")) != nil {
		t.Fatal("hash should match the pin")
	}
}
