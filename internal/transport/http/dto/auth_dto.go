package dto

import "time"

// SessionResponse is returned whenever a session was started. Cookie
// clients can ignore it.
type SessionResponse struct {
	AccessToken  string    `json:"access_token"`
	ExpiresInSec int64     `json:"expires_in_sec"`
	ExpiresAt    time.Time `json:"session_expires_at"`
}

type TelegramLoginResponse struct {
	NeedToConnect bool             `json:"need_to_connect"`
	Session       *SessionResponse `json:"session,omitempty"`
}

type TelegramConnectResponse struct {
	User    ViewUser         `json:"user"`
	Session *SessionResponse `json:"session,omitempty"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}
