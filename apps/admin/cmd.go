package main

import (
	"errors"
	"fmt"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/storage/database"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb - create the app database and user if they do not exist")
	fmt.Println("  migrate  - apply pending database migrations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "createdb":
		return database.CreateIfNotExist(cli.conf)
	case "migrate":
		return cli.migrate()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate() error {
	db, err := database.Open(cli.conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		return err
	}
	return database.Migrate(db.DB)
}
