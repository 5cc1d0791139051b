package videosession

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/course"
	"github.com/jifunze/jifunze/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("video session not found")
	ErrNotInstructor = core.NewPermissionError("user is not an instructor")
	ErrTitleRequired = errors.New("Session title is required to generate the session link.")
)

type (
	Repository interface {
		Create(ctx context.Context, s Session) (Session, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Session, error) // newest first
		Get(ctx context.Context, id int) (Session, error)
		Update(ctx context.Context, s Session) (Session, error)
		Delete(ctx context.Context, id int) error
	}

	CourseFinder interface {
		CourseOf(ctx context.Context, p user.Principal) (course.Course, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, p user.Principal, ns NewSession) (Session, error)
		Update(ctx context.Context, p user.Principal, id int, us UpdateSession) (Session, error)
		Delete(ctx context.Context, p user.Principal, id int) error
		Query(ctx context.Context, filter *QueryFilter) ([]Session, error)
		Get(ctx context.Context, id int) (Session, error)
	}

	Service struct {
		repo    Repository
		courses CourseFinder
		links   *LinkGenerator
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, courses CourseFinder, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		links:   NewLinkGenerator(conf.MeetingBaseURL),
	}
}

// courseOf reports every caller without a course as not being an instructor.
func (svc *Service) courseOf(ctx context.Context, p user.Principal) (course.Course, error) {
	c, err := svc.courses.CourseOf(ctx, p)
	if err != nil {
		if core.IsPermissionDenied(err) {
			return course.Course{}, ErrNotInstructor
		}
		return course.Course{}, err
	}
	return c, nil
}

func checkTitle(title string) error {
	if title == "" {
		return core.NewValidationError(ErrTitleRequired, core.FieldError{Field: "session_title", Error: ErrTitleRequired.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, p user.Principal, ns NewSession) (Session, error) {
	c, err := svc.courseOf(ctx, p)
	if err != nil {
		return Session{}, err
	}
	if err = checkTitle(ns.Title); err != nil {
		return Session{}, err
	}

	now := time.Now().UTC()
	s := Session{
		Title:        ns.Title,
		Link:         svc.links.Generate(ns.Title),
		CourseID:     c.ID,
		InstructorID: c.InstructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if ns.ScheduledTime != nil {
		s.ScheduledTime = ns.ScheduledTime.UTC()
	}

	s, err = svc.repo.Create(ctx, s)
	if err != nil {
		return Session{}, errors.Wrap(err, "creating video session")
	}
	return s, nil
}

// Update rewrites a session of the caller and always gives it a new link.
func (svc *Service) Update(ctx context.Context, p user.Principal, id int, us UpdateSession) (Session, error) {
	c, err := svc.courseOf(ctx, p)
	if err != nil {
		return Session{}, err
	}
	s, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.InstructorID != c.InstructorID {
		return Session{}, core.ErrPermissionDenied
	}
	if err = checkTitle(us.Title); err != nil {
		return Session{}, err
	}

	s.Title = us.Title
	if us.ScheduledTime != nil {
		s.ScheduledTime = us.ScheduledTime.UTC()
	}
	s.CourseID = c.ID
	s.Link = svc.links.Generate(us.Title)
	s.UpdatedAt = time.Now().UTC()

	s, err = svc.repo.Update(ctx, s)
	if err != nil {
		return Session{}, errors.Wrap(err, "updating video session")
	}
	return s, nil
}

func (svc *Service) Delete(ctx context.Context, p user.Principal, id int) error {
	s, err := svc.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsAdmin() {
		c, err := svc.courseOf(ctx, p)
		if err != nil {
			return err
		}
		if s.InstructorID != c.InstructorID {
			return core.ErrPermissionDenied
		}
	}
	return svc.repo.Delete(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Session, error) {
	return svc.repo.Query(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id int) (Session, error) {
	return svc.repo.Get(ctx, id)
}
