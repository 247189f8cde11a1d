package session

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// Roles. The set is closed: a credential carrying any other value fails to
// decode and the caller is treated as unauthenticated.
const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

var AllRoles = []Role{RoleOwner, RoleAdmin, RoleStudent}

type Role string

func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", errors.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Session represents an authenticated caller for the lifetime of one
// credential. It is resolved once per request and never re-read mid-request.
type Session struct {
	UserID    string      `json:"user_id"`
	Name      null.String `json:"name"`
	Phone     string      `json:"phone"`
	Role      Role        `json:"role"`
	Workspace null.String `json:"workspace"` // tenant scope; null until the user is attached to one

	// token material; opaque to everything but the codec and refresher
	AccessToken     string    `json:"-"`
	RefreshToken    string    `json:"-"`
	AccessExpiresAt time.Time `json:"-"`
	// OrigIssuedAt is the first sign-in time; the refresh window is measured
	// from it, not from the latest refresh.
	OrigIssuedAt time.Time `json:"-"`
}

// Expired reports whether the access token is past its lifetime.
// An expired session may still be refreshable within the refresh window.
func (s Session) Expired() bool {
	return time.Now().After(s.AccessExpiresAt)
}

// New builds a Session from a provider identity at sign-in time.
func New(id Identity) (Session, error) {
	if id.UserID == "" {
		return Session{}, errors.New("identity has no user id")
	}
	role, err := ParseRole(id.Role)
	if err != nil {
		return Session{}, errors.Wrap(err, "parsing identity role")
	}

	now := time.Now()
	return Session{
		UserID:          id.UserID,
		Name:            null.NewString(id.Name, id.Name != ""),
		Phone:           id.Phone,
		Role:            role,
		Workspace:       null.NewString(id.Workspace, id.Workspace != ""),
		AccessToken:     id.AccessToken,
		RefreshToken:    id.RefreshToken,
		AccessExpiresAt: now.Add(id.ExpiresIn),
		OrigIssuedAt:    now,
	}, nil
}
