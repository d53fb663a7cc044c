package domain

import "time"

// SessionInfo identifies the authenticated caller. Services receive it explicitly
// instead of reading request state.
type SessionInfo struct {
	UserID    string
	Name      string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry. A zero ExpiresAt never expires.
func (s SessionInfo) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(now)
}

// FlashType classifies a one-shot message.
type FlashType string

const (
	FlashSuccess FlashType = "success"
	FlashError   FlashType = "error"
)

// Flash is a message shown once on the next rendered page.
type Flash struct {
	Type    FlashType `json:"type"`
	Message string    `json:"message"`
}

// FormState carries rejected form input across a redirect.
type FormState struct {
	Errors map[string]string `json:"errors"`
	Old    map[string]string `json:"old"`
}
