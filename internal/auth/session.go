package auth

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/clock"
	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

const (
	keyUserID       = "user_id"
	keyUserName     = "user_name"
	keyUserEmail    = "user_email"
	keyExpiresAt    = "expires_at"
	keyFlashType    = "flash_type"
	keyFlashMessage = "flash_message"
	keyFormState    = "form_state"
)

const (
	msgLoginRequired  = "You must be logged in to access that page."
	msgSessionExpired = "Your session has expired, please log in again."
)

// SessionBag is mutable per-request session state. The *session.Session values
// produced by fiber's session middleware satisfy it.
type SessionBag interface {
	Get(key string) interface{}
	Set(key string, val interface{})
	Delete(key string)
	Destroy() error
}

// Guard gates authenticated operations on the session marker and its expiry.
type Guard struct {
	clock  clock.Clock
	logger *zap.Logger
}

// NewGuard returns a guard that reads the time from c.
func NewGuard(c clock.Clock, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{clock: c, logger: logger}
}

// EnsureAuthenticated returns the caller identity stored in bag. It fails with
// UNAUTHENTICATED when no user is logged in and with SESSION_EXPIRED when the
// session is past its expiry, in which case the session is destroyed. Both
// failures leave a flash message for the next page.
func (g *Guard) EnsureAuthenticated(bag SessionBag) (*domain.SessionInfo, error) {
	info, ok := Current(bag)
	if !ok {
		SetFlash(bag, domain.FlashError, msgLoginRequired)
		return nil, errorutil.NewUnauthenticated(msgLoginRequired)
	}
	if info.Expired(g.clock.Now()) {
		if err := Destroy(bag); err != nil {
			g.logger.Warn("expired session destroy failed", zap.String("user_id", info.UserID), zap.Error(err))
		}
		SetFlash(bag, domain.FlashError, msgSessionExpired)
		return nil, errorutil.NewSessionExpired(msgSessionExpired)
	}
	return &info, nil
}

// Establish records a logged-in user in bag.
func Establish(bag SessionBag, info domain.SessionInfo) {
	bag.Set(keyUserID, info.UserID)
	bag.Set(keyUserName, info.Name)
	bag.Set(keyUserEmail, info.Email)
	bag.Set(keyExpiresAt, info.ExpiresAt.Unix())
}

// Current reads the identity stored in bag without checking expiry.
func Current(bag SessionBag) (domain.SessionInfo, bool) {
	if bag == nil {
		return domain.SessionInfo{}, false
	}
	userID, _ := bag.Get(keyUserID).(string)
	if userID == "" {
		return domain.SessionInfo{}, false
	}
	info := domain.SessionInfo{UserID: userID}
	info.Name, _ = bag.Get(keyUserName).(string)
	info.Email, _ = bag.Get(keyUserEmail).(string)
	if exp, ok := unixSeconds(bag.Get(keyExpiresAt)); ok {
		info.ExpiresAt = time.Unix(exp, 0)
	}
	return info, true
}

// Destroy removes all session state. Calling it on an empty session is a no-op.
func Destroy(bag SessionBag) error {
	for _, key := range []string{keyUserID, keyUserName, keyUserEmail, keyExpiresAt, keyFlashType, keyFlashMessage, keyFormState} {
		bag.Delete(key)
	}
	return bag.Destroy()
}

// SetFlash replaces the pending flash message.
func SetFlash(bag SessionBag, kind domain.FlashType, message string) {
	bag.Set(keyFlashType, string(kind))
	bag.Set(keyFlashMessage, message)
}

// ConsumeFlash returns the pending flash message, if any, and clears it.
func ConsumeFlash(bag SessionBag) *domain.Flash {
	if bag == nil {
		return nil
	}
	message, _ := bag.Get(keyFlashMessage).(string)
	kind, _ := bag.Get(keyFlashType).(string)
	bag.Delete(keyFlashType)
	bag.Delete(keyFlashMessage)
	if message == "" {
		return nil
	}
	return &domain.Flash{Type: domain.FlashType(kind), Message: message}
}

// StashForm keeps rejected form input until the next ConsumeForm.
func StashForm(bag SessionBag, state domain.FormState) {
	encoded, err := json.Marshal(state)
	if err != nil {
		return
	}
	bag.Set(keyFormState, string(encoded))
}

// ConsumeForm returns and clears stashed form input.
func ConsumeForm(bag SessionBag) *domain.FormState {
	if bag == nil {
		return nil
	}
	encoded, _ := bag.Get(keyFormState).(string)
	bag.Delete(keyFormState)
	if encoded == "" {
		return nil
	}
	var state domain.FormState
	if err := json.Unmarshal([]byte(encoded), &state); err != nil {
		return nil
	}
	return &state
}

func unixSeconds(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
