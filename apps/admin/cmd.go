package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ozolsdev/examticket/core"
	"github.com/ozolsdev/examticket/storage/database"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	db   *sql.DB // pre-opened connection, for tests
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb - create the database and application user if missing")
	fmt.Println("  migrate COMMAND [args] - run a migration command (up, down, status, ...)")
	fmt.Println("  rearmbrakes - re-arm countdowns for pauses still marked active")
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
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		db := cli.db
		if db == nil {
			var err error
			if db, err = cli.openDB(); err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
		}
		return cli.migrate(db, args[2:])
	case "rearmbrakes":
		return cli.reArmBrakes(context.Background())
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) openDB() (*sql.DB, error) {
	db, err := database.Open(cli.conf)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
