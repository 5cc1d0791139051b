package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/jifunze/jifunze/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                                 - run a goose command against the database")
	fmt.Println("  createsuperadmin [-email E -first-name F -last-name L] - create an administrator (SUPERUSER_* env as fallback)")
	fmt.Println("  resetpassword -email EMAIL                             - reset a user's password")
	fmt.Println("  activate -role instructor|student -id ID               - activate an instructor or a student")
	fmt.Println("  deactivate -role instructor|student -id ID             - deactivate an instructor or a student")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createSuperadminCmd := flag.NewFlagSet("createsuperadmin", flag.ContinueOnError)
	superEmail := createSuperadminCmd.String("email", "", "The administrator's email. Defaults to $SUPERUSER_EMAIL.")
	superFirstName := createSuperadminCmd.String("first-name", "", "Defaults to $SUPERUSER_FIRST_NAME.")
	superLastName := createSuperadminCmd.String("last-name", "", "Defaults to $SUPERUSER_LAST_NAME.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	activateCmd := flag.NewFlagSet("activate", flag.ContinueOnError)
	activateRole := activateCmd.String("role", "", "instructor or student")
	activateID := activateCmd.Int("id", 0, "The instructor or student ID.")

	deactivateCmd := flag.NewFlagSet("deactivate", flag.ContinueOnError)
	deactivateRole := deactivateCmd.String("role", "", "instructor or student")
	deactivateID := deactivateCmd.Int("id", 0, "The instructor or student ID.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "createsuperadmin":
		if err := parseFlags(createSuperadminCmd, args[2:]); err != nil {
			return err
		}
		return cli.createSuperadmin(*superEmail, *superFirstName, *superLastName)

	case "resetpassword":
		if err := parseFlags(resetPasswordCmd, args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "activate":
		if err := parseFlags(activateCmd, args[2:]); err != nil {
			return err
		}
		return cli.setStatus(user.Role(*activateRole), *activateID, user.StatusActivated)

	case "deactivate":
		if err := parseFlags(deactivateCmd, args[2:]); err != nil {
			return err
		}
		return cli.setStatus(user.Role(*deactivateRole), *deactivateID, user.StatusDeactivated)

	default:
		cli.printUsage()
		return errHelp
	}
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
