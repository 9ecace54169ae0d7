package entity

import (
	"time"

	"leadbook/core/entity"
)

// OAuthState is a single-use consent-flow nonce. VisitorID ties the
// provider callback back to the browser profile that started the link.
type OAuthState struct {
	State     string    `db:"state"`
	VisitorID string    `db:"visitor_id"`
	ExpiresAt time.Time `db:"expires_at"`
	entity.BaseEntity
}
