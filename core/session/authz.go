package session

import (
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrForbidden       = errors.New("permission denied")
)

// Authorize decides whether sess may execute an endpoint restricted to the
// given roles. An empty allow-list admits any authenticated session. The
// check is exact set membership; there is no role hierarchy.
func Authorize(sess *Session, allowed []Role) error {
	if sess == nil {
		return ErrUnauthenticated
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range allowed {
		if role == sess.Role {
			return nil
		}
	}
	return ErrForbidden
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
