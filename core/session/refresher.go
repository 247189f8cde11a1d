package session

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core"
)

// Refresher exchanges an expired-but-refreshable session for a renewed one.
// Refresh is attempted at most once per request (the pipeline caches the
// result) and fails closed: any provider failure clears the credential and
// leaves the caller unauthenticated.
type Refresher struct {
	store    *CookieStore
	provider Provider
	logger   core.Logger
}

func NewRefresher(store *CookieStore, provider Provider, logger core.Logger) *Refresher {
	return &Refresher{store: store, provider: provider, logger: logger}
}

// Refresh returns the renewed session, persisted via the store, or nil.
func (r *Refresher) Refresh(ctx echo.Context, sess Session) *Session {
	id, err := r.provider.Refresh(ctx.Request().Context(), sess.RefreshToken)
	if err != nil {
		r.logger.Warn("session: refresh rejected for user "+sess.UserID, err)
		r.store.Clear(ctx)
		return nil
	}

	// same identity, new token material; the refresh window stays anchored to
	// the original sign-in
	newSess := sess
	newSess.AccessToken = id.AccessToken
	newSess.RefreshToken = id.RefreshToken
	newSess.AccessExpiresAt = time.Now().Add(id.ExpiresIn)

	if err := r.store.Write(ctx, newSess); err != nil {
		r.logger.Warn("session: persisting refreshed session for user "+sess.UserID, err)
		r.store.Clear(ctx)
		return nil
	}
	return &newSess
}
