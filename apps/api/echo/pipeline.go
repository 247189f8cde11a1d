package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/audit"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/workspace"
)

type (
	// Endpoint declares what a handler is, for authorization and auditing.
	// An empty Roles list admits any authenticated session.
	Endpoint struct {
		Resource string
		Action   audit.Action
		Roles    []session.Role
	}

	// Context is the per-request bundle handed to a handler. It is built only
	// after authorization succeeds (or immediately on public endpoints).
	Context struct {
		echo.Context
		Session *session.Session // nil on public endpoints without a credential
		Store   *workspace.Handle
		Audit   *audit.Logger
	}

	Param struct {
		Name  string
		Value string
	}

	// Response is a handler's successful result; a zero Status means 200.
	Response struct {
		Status int
		Data   interface{}
	}

	HandlerFunc func(*Context) (*Response, error)

	// Pipeline orchestrates session resolution, authorization, context
	// building, handler invocation and audit flushing around every endpoint.
	Pipeline struct {
		store      *session.CookieStore
		refresher  *session.Refresher
		sink       audit.Sink
		logger     core.Logger
		wsSvc      *workspace.Service
		translator ut.Translator
	}
)

// Params returns the resolved route parameters in declaration order.
func (c *Context) Params() []Param {
	names := c.ParamNames()
	params := make([]Param, 0, len(names))
	for _, name := range names {
		params = append(params, Param{Name: name, Value: c.Param(name)})
	}
	return params
}

func newPipeline(
	store *session.CookieStore,
	refresher *session.Refresher,
	sink audit.Sink,
	logger core.Logger,
	wsSvc *workspace.Service,
	translator ut.Translator,
) *Pipeline {
	return &Pipeline{
		store:      store,
		refresher:  refresher,
		sink:       sink,
		logger:     logger,
		wsSvc:      wsSvc,
		translator: translator,
	}
}

// Handle wraps h for a protected endpoint.
func (p *Pipeline) Handle(ep Endpoint, h HandlerFunc) echo.HandlerFunc {
	return p.wrap(ep, h, false)
}

// HandlePublic wraps h for an endpoint that admits unauthenticated callers;
// the session is still resolved when a usable credential is present.
func (p *Pipeline) HandlePublic(ep Endpoint, h HandlerFunc) echo.HandlerFunc {
	return p.wrap(ep, h, true)
}

// wrap runs the per-request state machine:
// Resolve -> Authorize -> Build -> Invoke -> Finalize.
// Every exit path records a terminal audit entry and flushes it before the
// response is written.
func (p *Pipeline) wrap(ep Endpoint, h HandlerFunc, public bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		reqCtx := ctx.Request().Context()
		al := audit.NewLogger(p.sink, p.logger, ep.Resource, ep.Action)

		// Resolve
		sess := p.resolve(ctx)
		if sess != nil {
			al.SetActor(&audit.Actor{ID: sess.UserID, Role: string(sess.Role), Workspace: sess.Workspace})
		}

		// Authorize
		if !public {
			if err := session.Authorize(sess, ep.Roles); err != nil {
				status := http.StatusUnauthorized
				if err == session.ErrForbidden {
					status = http.StatusForbidden
				}
				al.Record(audit.LevelWarn, status, nil)
				al.Flush(reqCtx)
				return ctx.JSON(status, errorBody(err.Error()))
			}
		}

		// Build
		var ws = nullWorkspace(sess)
		ectx := &Context{
			Context: ctx,
			Session: sess,
			Store:   p.wsSvc.Scoped(ws),
			Audit:   al,
		}

		// Invoke
		resp, err := invoke(ectx, h)

		// Finalize
		return p.finalize(ctx, al, resp, err)
	}
}

// resolve reads the credential once per request. A present-but-expired access
// token triggers exactly one refresh attempt; any failure reads as absent.
func (p *Pipeline) resolve(ctx echo.Context) *session.Session {
	sess := p.store.Read(ctx)
	if sess == nil {
		return nil
	}
	if sess.Expired() {
		return p.refresher.Refresh(ctx, *sess)
	}
	return sess
}

// invoke runs the handler, converting a panic into a fault with its stack.
func invoke(ctx *Context, h HandlerFunc) (resp *Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("panic: %v", rec)
		}
	}()
	return h(ctx)
}

// finalize classifies the handler outcome, records and flushes the terminal
// audit entry, then writes the response. Internal error detail never reaches
// the caller.
func (p *Pipeline) finalize(ctx echo.Context, al *audit.Logger, resp *Response, err error) error {
	reqCtx := ctx.Request().Context()

	if err == nil {
		status := http.StatusOK
		var data interface{}
		if resp != nil {
			if resp.Status != 0 {
				status = resp.Status
			}
			data = resp.Data
		}
		al.Record(audit.LevelInfo, status, nil)
		al.Flush(reqCtx)
		return ctx.JSON(status, dataBody(data))
	}

	if berr, ok := core.AsBusinessError(err); ok {
		var message interface{} = berr.Error()
		if berr.Fields != nil {
			fldErrs := make(map[string]string, len(berr.Fields))
			for _, fErr := range berr.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			message = fldErrs
		}
		al.Record(levelForStatus(berr.Status), berr.Status, nil)
		al.Flush(reqCtx)
		return ctx.JSON(berr.Status, errorBody(message))
	}

	if vErrs, ok := errors.Cause(err).(validator.ValidationErrors); ok {
		fldErrs := make(map[string]string, len(vErrs))
		for _, vErr := range vErrs {
			fldErrs[vErr.Field()] = vErr.Translate(p.translator)
		}
		al.Record(audit.LevelWarn, http.StatusBadRequest, nil)
		al.Flush(reqCtx)
		return ctx.JSON(http.StatusBadRequest, errorBody(fldErrs))
	}

	// any other error is a fault
	al.Record(audit.LevelError, http.StatusInternalServerError, err)
	al.Flush(reqCtx)
	p.logger.Error("request fault", err)
	if core.IsShutdown(err) {
		return err // let the app error handler signal shutdown
	}
	return ctx.JSON(http.StatusInternalServerError, errorBody(genericErrorText))
}

func levelForStatus(status int) audit.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return audit.LevelError
	case status >= http.StatusBadRequest:
		return audit.LevelWarn
	default:
		return audit.LevelInfo
	}
}

func nullWorkspace(sess *session.Session) null.String {
	if sess != nil {
		return sess.Workspace
	}
	return null.String{}
}
