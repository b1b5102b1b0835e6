package model

import "time"

// Session is a verified session issued by the authentication provider.
// UserID is the token subject and owns any stored API key.
type Session struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}
