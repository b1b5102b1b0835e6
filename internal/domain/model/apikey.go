package model

// APIKey is a user's schema registry API key as persisted in the credential
// store. EncryptedKey, IV and Tag are hex-encoded AES-256-GCM outputs and are
// only meaningful together.
type APIKey struct {
	ID           int64  `json:"id" db:"id"`
	UserID       string `json:"user_id" db:"user_id"`
	EncryptedKey string `json:"-" db:"encrypted_key"`
	IV           string `json:"-" db:"iv"`
	Tag          string `json:"-" db:"tag"`
}
