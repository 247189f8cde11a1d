package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// CookieStore reads, writes and clears the session cookie for the current
// request. A missing, malformed or tampered cookie all read as "absent" so
// downstream logic has a single unauthenticated path.
type CookieStore struct {
	codec  *Codec
	name   string
	secure bool
}

func NewCookieStore(conf *core.Config) *CookieStore {
	return &CookieStore{
		codec:  NewCodec(conf),
		name:   conf.Session.CookieName,
		secure: !conf.Debug,
	}
}

// Read decodes the session cookie; nil means no usable session.
func (s *CookieStore) Read(ctx echo.Context) *Session {
	cookie, err := ctx.Cookie(s.name)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := s.codec.Decode(cookie.Value)
	if err != nil {
		return nil // corrupt credential == no credential
	}
	return sess
}

// Write serializes sess and sets the session cookie, expiring at the refresh
// deadline.
func (s *CookieStore) Write(ctx echo.Context, sess Session) error {
	value, deadline, err := s.codec.Encode(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	ctx.SetCookie(&http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		Expires:  deadline,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie. Clearing an absent cookie is a no-op.
func (s *CookieStore) Clear(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
