// Package token signs the operator access token. httpkit.AuthRequired verifies it.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TypeAccess is the only token type the API accepts.
const TypeAccess = "access"

// Sign issues an HS256 access token for sessionID that expires after ttl.
func Sign(sessionID uuid.UUID, secret string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sid":  sessionID.String(),
		"type": TypeAccess,
		"exp":  expiresAt.Unix(),
		"iat":  now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tokenObj.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
