package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidGrant is returned by a Provider when the submitted credentials or
// refresh token are rejected (invalid, expired or revoked).
var ErrInvalidGrant = errors.New("invalid grant")

// Identity is what the identity provider knows about a caller after a
// successful token exchange.
type Identity struct {
	UserID    string
	Name      string
	Phone     string
	Role      string
	Workspace string

	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Provider is the external identity provider collaborator.
type Provider interface {
	// SignIn exchanges a phone/password pair for a fresh identity.
	SignIn(ctx context.Context, phone, password string) (Identity, error)
	// Refresh exchanges a refresh token for a renewed access/refresh pair.
	Refresh(ctx context.Context, refreshToken string) (Identity, error)
}
