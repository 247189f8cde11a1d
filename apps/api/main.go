package main

import (
	"log"
	"os"

	"github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/workspace"
	"github.com/trezcool/darasa/services/email"
	"github.com/trezcool/darasa/services/identity"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.RollbarToken != "" {
		rl := logsvc.NewRollbarLogger(std, conf)
		rl.Enable(!conf.Debug && !conf.TestMode)
		logger = rl
	} else {
		logger = logsvc.NewStdLogger(std)
	}

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err, logger)
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	switch {
	case conf.TestMode:
		mailSvc = emailsvc.NewConsoleServiceMock(conf)
	case conf.Debug:
		mailSvc = emailsvc.NewConsoleService(conf)
	default:
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var provider session.Provider
	if conf.Debug {
		provider = identitysvc.NewDummyProvider(
			conf.Session.AccessTokenDelta,
			session.Identity{UserID: "dev-owner", Name: "Dev Owner", Phone: "+243970000001", Role: "owner", Workspace: "dev"},
			session.Identity{UserID: "dev-admin", Name: "Dev Admin", Phone: "+243970000002", Role: "admin", Workspace: "dev"},
			session.Identity{UserID: "dev-student", Name: "Dev Student", Phone: "+243970000003", Role: "student", Workspace: "dev"},
		)
	} else {
		provider = identitysvc.NewHTTPProvider(conf)
	}

	wsSvc := workspace.NewService(database.NewWorkspaceRepository(db), mailSvc)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Addr:         conf.Server.Addr,
			Conf:         conf,
			Logger:       logger,
			Provider:     provider,
			Sink:         database.NewAuditSink(db),
			WorkspaceSvc: wsSvc,
		},
	)
	app.Start()
}

func errAndDie(err error, logger core.Logger) {
	if err != nil {
		logger.Fatal(err.Error())
	}
}
