package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/ozolsdev/examticket/apps/api/echo"
	"github.com/ozolsdev/examticket/core"
	"github.com/ozolsdev/examticket/core/brake"
	"github.com/ozolsdev/examticket/core/exam"
	"github.com/ozolsdev/examticket/core/timer"
	broadcastsvc "github.com/ozolsdev/examticket/services/broadcast"
	logsvc "github.com/ozolsdev/examticket/services/logger"
	"github.com/ozolsdev/examticket/storage/database"
	inmemdb "github.com/ozolsdev/examticket/storage/inmem"
	"github.com/ozolsdev/examticket/storage/mongodb"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up storage
	examRepo, brakeRepo, settingsRepo, closeDB, err := setUpStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = closeDB(); err != nil {
			dbLogger.Error("failed to close storage", err)
		}
	}()

	// set up services
	var broadcaster core.Broadcaster
	if conf.Debug {
		broadcaster = broadcastsvc.NewInmemService()
	} else {
		broadcaster = broadcastsvc.NewPusherService(conf, logger)
	}

	examSvc := exam.NewService(examRepo, settingsRepo, broadcaster, logger)
	brakeSvc := brake.NewService(brakeRepo, examSvc, broadcaster, logger)
	defer brakeSvc.Close()
	timerSvc := timer.NewService(examRepo, examSvc, brakeSvc, broadcaster, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// pauses interrupted by a restart pick their countdowns back up
	if err = brakeSvc.ReArm(context.Background()); err != nil {
		logger.Error(fmt.Sprintf("re-arming brakes: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			ExamSvc:     examSvc,
			TimerSvc:    timerSvc,
			BrakeSvc:    brakeSvc,
			Broadcaster: broadcaster,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpStorage(conf *core.Config) (exam.Repository, brake.Repository, exam.SettingsRepository, func() error, error) {
	noClose := func() error { return nil }

	switch conf.Database.Engine {
	case "mongodb":
		db, err := mongodb.Open(context.Background(), conf)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		closeDB := func() error { return db.Client().Disconnect(context.Background()) }
		return mongodb.NewExamRepository(db), mongodb.NewBrakeRepository(db), mongodb.NewSettingsRepository(db), closeDB, nil

	case "postgres":
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, nil, nil, nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, nil, nil, err
		}
		dbx := sqlx.NewDb(db, "postgres")
		return database.NewExamRepository(dbx), database.NewBrakeRepository(dbx), database.NewSettingsRepository(dbx), db.Close, nil

	default: // volatile store for local hacking
		db := inmemdb.NewDB()
		return inmemdb.NewExamRepository(db), inmemdb.NewBrakeRepository(db), inmemdb.NewSettingsRepository(db), noClose, nil
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
