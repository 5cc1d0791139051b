package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/user"
	emailsvc "github.com/jifunze/jifunze/services/email"
	logsvc "github.com/jifunze/jifunze/services/logger"
	filesvc "github.com/jifunze/jifunze/services/storage"
	"github.com/jifunze/jifunze/storage/database"
	sqlxrepos "github.com/jifunze/jifunze/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	rl := logsvc.NewRollbarLogger(logsvc.NewZerolog(os.Stdout, conf).With().Str("component", "admin").Logger(), conf)
	rl.Enable(!conf.Debug)
	logger = rl

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	core.ParseEmailTemplates(conf, logger)

	storage, err := filesvc.New(context.Background(), conf)
	errAndDie(err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger)

	// start CLI
	cli := commandLine{
		db:       db.DB,
		usrSvc:   user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, storage, conf),
		validate: validate,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
