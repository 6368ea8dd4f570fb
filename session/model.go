package session

import "time"

// Identity is the account identity a session is created for.
type Identity struct {
	UserID   string
	Email    string
	Name     string
	Provider string
}

// Session is a time-bounded proof of authentication bound to one account and
// one device. Persisted only in sealed form.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token"`
	DeviceID  string    `json:"device_id"`
}

// Valid reports whether the session has not yet expired at the given instant.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}
