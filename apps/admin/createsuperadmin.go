package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kat-co/vala"

	"github.com/jifunze/jifunze/core/user"
)

func valueOrEnv(val, key string) string {
	if val != "" {
		return val
	}
	return os.Getenv(key)
}

// createSuperadmin creates a staff superuser unless one with the same email already exists.
func (cli *commandLine) createSuperadmin(email, firstName, lastName string) error {
	ns := user.NewSuperuser{
		Email:     valueOrEnv(email, "SUPERUSER_EMAIL"),
		FirstName: valueOrEnv(firstName, "SUPERUSER_FIRST_NAME"),
		LastName:  valueOrEnv(lastName, "SUPERUSER_LAST_NAME"),
		Password:  os.Getenv("SUPERUSER_PASSWORD"),
	}
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(ns.Email, "email"),
		vala.StringNotEmpty(ns.FirstName, "first-name"),
		vala.StringNotEmpty(ns.LastName, "last-name"),
	).Check(); err != nil {
		return err
	}

	ctx := context.Background()
	if usr, err := cli.usrSvc.GetByEmail(ctx, ns.Email); err == nil {
		fmt.Printf("Superuser %s already exists.\n", usr.Email)
		return nil
	}

	if ns.Password == "" {
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			return errHelp
		}
		ns.Password = pwd
	}
	if err := ns.Validate(cli.validate); err != nil {
		return err
	}

	usr, created, err := cli.usrSvc.CreateSuperuser(ctx, ns)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Superuser %s created.\n", usr.Email)
	} else {
		fmt.Printf("Superuser %s already exists.\n", usr.Email)
	}
	return nil
}
