package main

import (
	"github.com/pressly/goose/v3"

	"github.com/jifunze/jifunze/storage/database"
)

var gooseRunFunc = goose.Run // mockable

// migrate runs a goose command against the embedded migrations.
func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, database.MigrationsDir, arguments...)
}
