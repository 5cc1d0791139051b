package main

import (
	"context"
	"fmt"

	"github.com/kat-co/vala"

	"github.com/jifunze/jifunze/core/user"
)

func validRole(role user.Role) vala.Checker {
	return func() (bool, string) {
		return role.IsValid(), fmt.Sprintf("role: expected instructor or student, got %q", role)
	}
}

// setStatus activates or deactivates an instructor or a student. Repeating a transition is a no-op.
func (cli *commandLine) setStatus(role user.Role, id int, status user.Status) error {
	if err := vala.BeginValidation().Validate(
		validRole(role),
		vala.GreaterThan(id, 0, "id"),
	).Check(); err != nil {
		return err
	}

	ctx := context.Background()
	var (
		mbr user.Member
		err error
	)
	if status == user.StatusActivated {
		mbr, err = cli.usrSvc.Activate(ctx, role, id)
	} else {
		mbr, err = cli.usrSvc.Deactivate(ctx, role, id)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s %d (%s) is %s.\n", role, mbr.ID, mbr.User.Email, mbr.Status)
	return nil
}
