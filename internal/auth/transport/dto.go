package transport

import "time"

type UnlockRequest struct {
	PIN string `json:"pin" validate:"required,min=4,max=32"`
}

type UnlockResponse struct {
	AccessToken string    `json:"accessToken"`
	SessionID   string    `json:"sessionId"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
