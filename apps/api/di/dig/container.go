package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/jifunze/jifunze/apps/api/echo"
	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/course"
	"github.com/jifunze/jifunze/core/enrolment"
	"github.com/jifunze/jifunze/core/user"
	"github.com/jifunze/jifunze/core/videosession"
	emailsvc "github.com/jifunze/jifunze/services/email"
	logsvc "github.com/jifunze/jifunze/services/logger"
	filesvc "github.com/jifunze/jifunze/services/storage"
	"github.com/jifunze/jifunze/storage/database"
	inmemdb "github.com/jifunze/jifunze/storage/database/inmem"
	sqlxrepos "github.com/jifunze/jifunze/storage/database/sqlx"
)

const engineMemory = "memory"

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Repositories are backed by Postgres, or by memory when `database.engine` is "memory".
// DB is nil in the latter case.
type Repositories struct {
	dig.Out

	DB          *sqlx.DB
	Users       user.Repository
	Instructors course.InstructorFinder
	Courses     course.Repository
	Enrolments  enrolment.Repository
	Sessions    videosession.Repository
}

func newComponentLogger(conf *core.Config, component string) core.Logger {
	zl := logsvc.NewZerolog(os.Stdout, conf).With().Str("component", component).Logger()
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newLogger(conf *core.Config) core.Logger {
	return newComponentLogger(conf, "api")
}

func newDBLogger(conf *core.Config) core.Logger {
	return newComponentLogger(conf, "db")
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	if conf.Database.Engine == engineMemory {
		db := inmemdb.Open()
		usrRepo := inmemdb.NewUserRepository(db)
		return Repositories{
			Users:       usrRepo,
			Instructors: usrRepo,
			Courses:     inmemdb.NewCourseRepository(db),
			Enrolments:  inmemdb.NewEnrolmentRepository(db),
			Sessions:    inmemdb.NewSessionRepository(db),
		}
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	usrRepo := sqlxrepos.NewUserRepository(db)
	return Repositories{
		DB:          db,
		Users:       usrRepo,
		Instructors: usrRepo,
		Courses:     sqlxrepos.NewCourseRepository(db),
		Enrolments:  sqlxrepos.NewEnrolmentRepository(db),
		Sessions:    sqlxrepos.NewSessionRepository(db),
	}
}

// CourseServices exposes the course service under each interface its consumers depend on.
type CourseServices struct {
	dig.Out

	Service    course.ServiceInterface
	Enrolments enrolment.CourseFinder
	Sessions   videosession.CourseFinder
}

func newUserService(repo user.Repository, mailSvc core.EmailService, storage core.FileStorage, conf *core.Config) user.ServiceInterface {
	return user.NewService(repo, mailSvc, storage, conf)
}

func newCourseServices(repo course.Repository, instructors course.InstructorFinder) CourseServices {
	svc := course.NewService(repo, instructors)
	return CourseServices{Service: svc, Enrolments: svc, Sessions: svc}
}

func newEnrolmentService(repo enrolment.Repository, courses enrolment.CourseFinder) enrolment.ServiceInterface {
	return enrolment.NewService(repo, courses)
}

func newSessionService(repo videosession.Repository, courses videosession.CourseFinder, conf *core.Config) videosession.ServiceInterface {
	return videosession.NewService(repo, courses, conf)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newFileStorage(conf *core.Config) (core.FileStorage, error) {
	return filesvc.New(context.Background(), conf)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(newFileStorage))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newUserService))
	must(c.Provide(newCourseServices))
	must(c.Provide(newEnrolmentService))
	must(c.Provide(newSessionService))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
