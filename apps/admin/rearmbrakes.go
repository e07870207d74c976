package main

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ozolsdev/examticket/core"
	"github.com/ozolsdev/examticket/core/brake"
	"github.com/ozolsdev/examticket/core/exam"
	broadcastsvc "github.com/ozolsdev/examticket/services/broadcast"
	logsvc "github.com/ozolsdev/examticket/services/logger"
	"github.com/ozolsdev/examticket/storage/database"
	"github.com/ozolsdev/examticket/storage/mongodb"
)

// reArmBrakes sweeps pauses left active by an unclean API shutdown.
// Expired pauses are deactivated immediately so monitors stop showing a
// stale break banner; pending ones are left for the API boot to re-arm.
func (cli *commandLine) reArmBrakes(ctx context.Context) error {
	appLogger := logsvc.NewRollbarLogger(logger, cli.conf)
	appLogger.Enable(!cli.conf.Debug)

	var broadcaster core.Broadcaster
	if cli.conf.Debug {
		broadcaster = broadcastsvc.NewInmemService()
	} else {
		broadcaster = broadcastsvc.NewPusherService(cli.conf, appLogger)
	}

	var (
		examRepo  exam.Repository
		brakeRepo brake.Repository
		settings  exam.SettingsRepository
	)
	switch cli.conf.Database.Engine {
	case "mongodb":
		db, err := mongodb.Open(ctx, cli.conf)
		if err != nil {
			return err
		}
		defer func() { _ = db.Client().Disconnect(ctx) }()
		examRepo = mongodb.NewExamRepository(db)
		brakeRepo = mongodb.NewBrakeRepository(db)
		settings = mongodb.NewSettingsRepository(db)
	default:
		db, err := cli.openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		dbx := sqlx.NewDb(db, "postgres")
		examRepo = database.NewExamRepository(dbx)
		brakeRepo = database.NewBrakeRepository(dbx)
		settings = database.NewSettingsRepository(dbx)
	}

	examSvc := exam.NewService(examRepo, settings, broadcaster, appLogger)
	brakeSvc := brake.NewService(brakeRepo, examSvc, broadcaster, appLogger)
	defer brakeSvc.Close()

	return brakeSvc.ReArm(ctx)
}
