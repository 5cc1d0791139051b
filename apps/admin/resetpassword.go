package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if _, err := cli.usrSvc.SetPassword(ctx, usr, pwd); err != nil {
		return err
	}
	fmt.Printf("Password updated for %s.\n", usr.Email)
	return nil
}
