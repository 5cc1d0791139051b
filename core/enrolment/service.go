package enrolment

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
	ErrNotFound         = core.NewNotFoundError("enrolment not found")
	ErrProgressNotFound = core.NewNotFoundError("Progress record not found.")
	ErrDuplicate        = errors.New("Already enrolled in this course.")
	ErrNotStudent       = errors.New("Student profile not found.")
)

type (
	Repository interface {
		// Create returns ErrDuplicate when (student, course) is already taken.
		Create(ctx context.Context, e Enrolment) (Enrolment, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Enrolment, error)
		Get(ctx context.Context, filter GetFilter) (Enrolment, error)
		// IncrementCompleted adds one to the counter within the store.
		IncrementCompleted(ctx context.Context, id int) (Enrolment, error)
		Delete(ctx context.Context, id int) error
	}

	CourseFinder interface {
		GetCourse(ctx context.Context, id int) (course.Course, error)
		CourseOf(ctx context.Context, p user.Principal) (course.Course, error)
	}

	ServiceInterface interface {
		Enrol(ctx context.Context, p user.Principal, ne NewEnrolment) (Enrolment, error)
		MarkProgress(ctx context.Context, p user.Principal, id int, ue UpdateEnrolment) (Enrolment, error)
		Delete(ctx context.Context, p user.Principal, id int) error
		Query(ctx context.Context, p user.Principal, filter *QueryFilter) ([]Enrolment, error)
		Get(ctx context.Context, id int) (Enrolment, error)
	}

	Service struct {
		repo    Repository
		courses CourseFinder
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, courses CourseFinder) *Service {
	return &Service{repo: repo, courses: courses}
}

func studentOf(p user.Principal) (int, error) {
	if !p.Is(user.RoleStudent) || p.Member.ID == 0 {
		return 0, core.NewValidationError(ErrNotStudent)
	}
	return p.Member.ID, nil
}

// Enrol enrols the student behind `p` in an active course, once.
func (svc *Service) Enrol(ctx context.Context, p user.Principal, ne NewEnrolment) (Enrolment, error) {
	studentID, err := studentOf(p)
	if err != nil {
		return Enrolment{}, err
	}

	c, err := svc.courses.GetCourse(ctx, ne.CourseID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return Enrolment{}, core.NewFieldError("course", "Invalid course.")
		}
		return Enrolment{}, errors.Wrap(err, "finding course")
	}
	if !c.IsActive() {
		return Enrolment{}, core.NewFieldError("course", "Course is not active.")
	}

	// fast path for a friendly error, the store constraint is the real guard
	_, err = svc.repo.Get(ctx, GetFilter{StudentID: studentID, CourseID: c.ID})
	if err == nil {
		return Enrolment{}, core.NewValidationError(ErrDuplicate)
	}
	if errors.Cause(err) != ErrNotFound {
		return Enrolment{}, errors.Wrap(err, "finding enrolment")
	}

	e, err := svc.repo.Create(ctx, Enrolment{
		StudentID:  studentID,
		CourseID:   c.ID,
		DateJoined: time.Now().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrDuplicate {
			return Enrolment{}, core.NewValidationError(ErrDuplicate)
		}
		return Enrolment{}, errors.Wrap(err, "creating enrolment")
	}
	return e, nil
}

// MarkProgress advances the completion counter of the caller's enrolment in
// `ue.CourseID` by exactly one. `id` must designate that same enrolment.
func (svc *Service) MarkProgress(ctx context.Context, p user.Principal, id int, ue UpdateEnrolment) (Enrolment, error) {
	studentID, err := studentOf(p)
	if err != nil {
		return Enrolment{}, err
	}
	if ue.CourseID == nil {
		return Enrolment{}, core.NewFieldError("course", "This field is required.")
	}

	e, err := svc.repo.Get(ctx, GetFilter{StudentID: studentID, CourseID: *ue.CourseID})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Enrolment{}, ErrProgressNotFound
		}
		return Enrolment{}, errors.Wrap(err, "finding enrolment")
	}
	if e.ID != id {
		return Enrolment{}, ErrProgressNotFound
	}

	e, err = svc.repo.IncrementCompleted(ctx, e.ID)
	if err != nil {
		return Enrolment{}, errors.Wrap(err, "incrementing progress")
	}
	return e, nil
}

// Delete removes an enrolment. Students may only remove their own.
func (svc *Service) Delete(ctx context.Context, p user.Principal, id int) error {
	e, err := svc.repo.Get(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	if !p.IsAdmin() && !(p.Is(user.RoleStudent) && p.Member.ID == e.StudentID) {
		return core.ErrPermissionDenied
	}
	return svc.repo.Delete(ctx, id)
}

// Query lists the enrolments visible to `p`: all of them for admins, their own
// for students and those of their course for instructors.
func (svc *Service) Query(ctx context.Context, p user.Principal, filter *QueryFilter) ([]Enrolment, error) {
	if filter == nil {
		filter = &QueryFilter{}
	}
	switch p.Kind {
	case user.KindAdmin:
	case user.KindStudent:
		if p.Member.ID == 0 {
			return []Enrolment{}, nil
		}
		filter.StudentID = p.Member.ID
	case user.KindInstructor:
		c, err := svc.courses.CourseOf(ctx, p)
		if err != nil {
			if core.IsPermissionDenied(err) {
				return []Enrolment{}, nil
			}
			return nil, err
		}
		if filter.CourseID != 0 && filter.CourseID != c.ID {
			return []Enrolment{}, nil
		}
		filter.CourseID = c.ID
	default:
		return []Enrolment{}, nil
	}
	return svc.repo.Query(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id int) (Enrolment, error) {
	return svc.repo.Get(ctx, GetFilter{ID: id})
}
