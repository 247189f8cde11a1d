package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/audit"
	"github.com/trezcool/darasa/core/session"
)

var errInvalidCredentials = errors.New("invalid credentials")

type authApi struct {
	store    *session.CookieStore
	provider session.Provider
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, pipe *Pipeline, store *session.CookieStore, provider session.Provider, validate *validator.Validate) {
	api := authApi{
		store:    store,
		provider: provider,
		validate: validate,
	}

	ag := g.Group("/auth")
	ag.POST("/login", pipe.HandlePublic(Endpoint{Resource: "session", Action: audit.ActionCreate}, api.login))
	ag.POST("/logout", pipe.Handle(Endpoint{Resource: "session", Action: audit.ActionDelete}, api.logout))
	ag.GET("/session", pipe.Handle(Endpoint{Resource: "session", Action: audit.ActionRead}, api.retrieve))
}

// Handlers

func (api *authApi) login(ctx *Context) (*Response, error) {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return nil, core.NewValidationError(errInvalidCredentials)
	}
	if err := data.Validate(api.validate); err != nil {
		return nil, err
	}

	id, err := api.provider.SignIn(ctx.Request().Context(), data.Phone, data.Password)
	if err != nil {
		if errors.Cause(err) == session.ErrInvalidGrant {
			return nil, core.NewValidationError(errInvalidCredentials)
		}
		return nil, errors.Wrap(err, "signing in")
	}

	sess, err := session.New(id)
	if err != nil {
		return nil, errors.Wrap(err, "building session")
	}
	if err := api.store.Write(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "writing session")
	}

	ctx.Audit.SetActor(&audit.Actor{ID: sess.UserID, Role: string(sess.Role), Workspace: sess.Workspace})
	ctx.Audit.Info("signed in")
	return &Response{Status: http.StatusCreated, Data: sess}, nil
}

func (api *authApi) logout(ctx *Context) (*Response, error) {
	api.store.Clear(ctx)
	ctx.Audit.Info("signed out")
	return &Response{Data: "signed out"}, nil
}

func (api *authApi) retrieve(ctx *Context) (*Response, error) {
	return &Response{Data: ctx.Session}, nil
}

type LoginRequest struct {
	Phone    string `json:"phone" validate:"required,phone_"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Phone = core.CleanString(lr.Phone)
	return validate.Struct(lr)
}
