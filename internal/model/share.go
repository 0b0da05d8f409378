package model

import "time"

// Share grants access to a document either to a specific user or through a public link token.
type Share struct {
	ID               string     `json:"id"`
	DocumentID       string     `json:"document_id"`
	SharedWithUserID *string    `json:"shared_with_user_id"`
	PublicLinkToken  *string    `json:"public_link_token"`
	ExpiresAt        *time.Time `json:"expires_at"`
	Permissions      Permission `json:"permissions"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Expired reports whether the share has an expiry at or before now.
func (s *Share) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}
