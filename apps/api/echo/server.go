package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/audit"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/workspace"
)

type (
	Options struct {
		Addr           string
		DisableReqLogs bool

		Conf         *core.Config
		Logger       core.Logger
		Provider     session.Provider
		Sink         audit.Sink
		WorkspaceSvc *workspace.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, func() { _ = s.Stop(context.Background()) })
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator)

	store := session.NewCookieStore(conf)
	refresher := session.NewRefresher(store, s.opts.Provider, s.opts.Logger)
	pipe := newPipeline(store, refresher, s.opts.Sink, s.opts.Logger, s.opts.WorkspaceSvc, translator)

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	registerAuthAPI(v1, pipe, store, s.opts.Provider, validate)
	registerWorkspaceAPI(v1, pipe, validate)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
