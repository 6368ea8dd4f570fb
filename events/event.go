package events

import "time"

// Security event types recorded by the Service.
const (
	TypeLoginAttempt     = "login_attempt"
	TypeLoginSuccess     = "login_success"
	TypeLoginFailed      = "login_failed"
	TypeSignupSuccess    = "signup_success"
	TypeSignupFailed     = "signup_failed"
	TypeLogout           = "logout"
	TypeSuspicious       = "suspicious_activity_detected"
	TypePasswordReset    = "password_reset_requested"
	TypeAccountDeleted   = "account_deleted"
	TypeAccountDeleteErr = "account_deletion_failed"
)

// DeletedMarker replaces email details of removed accounts.
const DeletedMarker = "[deleted]"

// Event is one immutable security log entry.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Device    string            `json:"device,omitempty"`
}
