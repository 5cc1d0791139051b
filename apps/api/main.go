package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/dig"

	dig_container "github.com/jifunze/jifunze/apps/api/di/dig"
	echoapi "github.com/jifunze/jifunze/apps/api/echo"
	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/user"
)

type appParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	DBLoggerParam dig_container.DBLoggerParam
	DB            *sqlx.DB
	Validate      *validator.Validate
	Translator    ut.Translator
	Server        *echoapi.Server
}

func main() {
	c := dig_container.New()
	must(c.Invoke(run))
}

func run(p appParams) {
	conf, apiLogger, server := p.Conf, p.Logger, p.Server

	// =========================================================================
	// Initialize App

	apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

	core.InitValidators(p.Validate, p.Translator)
	user.InitValidators(p.Validate, p.Translator)

	core.ParseEmailTemplates(conf, apiLogger)

	user.LoadCommonPasswords(apiLogger)

	if p.DB != nil {
		dbLogger := p.DBLoggerParam.Logger
		defer func() {
			if err := p.DB.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
	}
	defer apiLogger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("db").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err := server.Shutdown(ctx); err != nil {
			apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
