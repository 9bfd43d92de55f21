package model

import "time"

// APIKey is a managed key that can be exchanged for a bearer token.
// The raw key is never stored; only a SHA-256 hash and a short prefix for
// identification are persisted.
type APIKey struct {
	ID        int64      `json:"id" db:"id"`
	KeyHash   string     `json:"-" db:"key_hash"`            // SHA-256 hash, never expose
	KeyPrefix string     `json:"key_prefix" db:"key_prefix"` // First 8 chars for identification
	Label     string     `json:"label" db:"label"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty" db:"last_used"`
}

// Usable reports whether the key is active and not past its expiry at now.
func (k *APIKey) Usable(now time.Time) bool {
	if !k.IsActive {
		return false
	}
	return k.ExpiresAt == nil || now.Before(*k.ExpiresAt)
}
