package testutil

import (
	"context"
	"io"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/course"
	"github.com/jifunze/jifunze/core/enrolment"
	"github.com/jifunze/jifunze/core/user"
	"github.com/jifunze/jifunze/core/videosession"
	logsvc "github.com/jifunze/jifunze/services/logger"
	inmemdb "github.com/jifunze/jifunze/storage/database/inmem"
)

// Config returns the configuration used by tests: TEST mode, quiet request logs.
func Config() *core.Config {
	conf := core.NewConfig()
	conf.Env = "TEST"
	conf.TestMode = true
	conf.Server.DisableReqLogs = true
	conf.Database.Engine = "memory"
	conf.Storage.Backend = "memory"
	conf.Storage.PublicBaseURL = "http://localhost/media"
	conf.MeetingBaseURL = videosession.DefaultMeetingBaseURL
	return conf
}

// Logger returns a silent logger with Rollbar disabled.
func Logger(conf *core.Config) core.Logger {
	l := logsvc.NewRollbarLogger(logsvc.NewZerolog(io.Discard, conf), conf)
	l.Enable(false)
	return l
}

// Validator returns a validator and its translator with every custom rule registered.
func Validator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// OpenDB returns a fresh in-memory store.
func OpenDB() *inmemdb.DB {
	return inmemdb.Open()
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, lastName, email, pwd string,
	isStaff, isActive bool,
	dateJoined ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(dateJoined) > 0 {
		tstamp = dateJoined[0].UTC()
	}
	usr := user.User{
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		IsStaff:     isStaff,
		IsSuperuser: isStaff,
		IsActive:    isActive,
		DateJoined:  tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateAdmin(t *testing.T, repo user.Repository, firstName, email string) user.User {
	return CreateUser(t, repo, firstName, "Admin", email, "", true, true)
}

// CreateMember creates a User with a `role` profile and its role record.
func CreateMember(
	t *testing.T,
	repo user.Repository,
	role user.Role,
	firstName, lastName, email, pwd string,
	status user.Status,
) user.Member {
	usr := user.User{
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		IsActive:   true,
		DateJoined: time.Now().UTC(),
		Profile:    &user.Profile{Role: role, Bio: null.String{}, Avatar: null.String{}},
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateMember() failed: %v", err)
		}
	}
	mbr, err := repo.CreateAccount(context.Background(), usr, status)
	if err != nil {
		t.Fatalf("CreateMember() failed: %v", err)
	}
	return mbr
}

func CreateInstructor(t *testing.T, repo user.Repository, firstName, email string, status user.Status) user.Member {
	return CreateMember(t, repo, user.RoleInstructor, firstName, "Instructor", email, "", status)
}

func CreateStudent(t *testing.T, repo user.Repository, firstName, email string, status user.Status) user.Member {
	return CreateMember(t, repo, user.RoleStudent, firstName, "Student", email, "", status)
}

func CreateCourse(t *testing.T, repo course.Repository, title string, instructorID int, status course.Status) course.Course {
	c, err := repo.CreateCourse(context.Background(), course.Course{
		Title:        title,
		InstructorID: instructorID,
		Status:       status,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func CreateLesson(t *testing.T, repo course.Repository, courseID int, title, content string, order int) course.Lesson {
	l, err := repo.CreateLesson(context.Background(), course.Lesson{
		CourseID: courseID,
		Title:    title,
		Content:  content,
		Order:    order,
	})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return l
}

func CreateVideo(t *testing.T, repo course.Repository, lessonID int, url, title string, order int) course.LessonVideo {
	v, err := repo.CreateVideo(context.Background(), course.LessonVideo{
		LessonID: lessonID,
		URL:      url,
		Title:    title,
		Order:    order,
	})
	if err != nil {
		t.Fatalf("CreateVideo() failed: %v", err)
	}
	return v
}

func CreateEnrolment(t *testing.T, repo enrolment.Repository, studentID, courseID int) enrolment.Enrolment {
	e, err := repo.Create(context.Background(), enrolment.Enrolment{
		StudentID:  studentID,
		CourseID:   courseID,
		DateJoined: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateEnrolment() failed: %v", err)
	}
	return e
}

func CreateSession(t *testing.T, repo videosession.Repository, title, link string, courseID, instructorID int) videosession.Session {
	now := time.Now().UTC()
	s, err := repo.Create(context.Background(), videosession.Session{
		Title:         title,
		ScheduledTime: now.Add(24 * time.Hour),
		Link:          link,
		CourseID:      courseID,
		InstructorID:  instructorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return s
}
