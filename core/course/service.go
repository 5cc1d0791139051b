package course

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/user"
)

const defaultOrder = 1

var (
	// errors
	ErrNotFound            = core.NewNotFoundError("course not found")
	ErrLessonNotFound      = core.NewNotFoundError("lesson not found")
	ErrVideoNotFound       = core.NewNotFoundError("lesson video not found")
	ErrNotInstructor       = core.NewPermissionError("user is not an instructor")
	ErrNoCourse            = core.NewPermissionError("user has no associated course")
	ErrInstructorHasCourse = errors.New("this instructor already has a course")
)

type (
	// GetFilter selects a single Course. The first non-zero field wins.
	GetFilter struct {
		ID           int
		InstructorID int
	}

	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, filter GetFilter) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id int) error

		CreateLesson(ctx context.Context, l Lesson) (Lesson, error)
		QueryLessons(ctx context.Context, filter *LessonFilter) ([]Lesson, error)
		GetLesson(ctx context.Context, id int) (Lesson, error)
		UpdateLesson(ctx context.Context, l Lesson) (Lesson, error)
		DeleteLesson(ctx context.Context, id int) error

		CreateVideo(ctx context.Context, v LessonVideo) (LessonVideo, error)
		QueryVideos(ctx context.Context, filter *VideoFilter) ([]LessonVideo, error)
		GetVideo(ctx context.Context, id int) (LessonVideo, error)
		UpdateVideo(ctx context.Context, v LessonVideo) (LessonVideo, error)
		DeleteVideo(ctx context.Context, id int) error
	}

	// InstructorFinder looks up instructor records.
	InstructorFinder interface {
		GetMember(ctx context.Context, role user.Role, filter user.MemberFilter) (user.Member, error)
	}

	ServiceInterface interface {
		CourseOf(ctx context.Context, p user.Principal) (Course, error)

		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
		UpdateCourse(ctx context.Context, id int, uc UpdateCourse) (Course, error)
		DeleteCourse(ctx context.Context, id int) error

		QueryLessons(ctx context.Context, filter *LessonFilter) ([]Lesson, error)
		GetLesson(ctx context.Context, id int) (Lesson, error)
		CreateLesson(ctx context.Context, p user.Principal, nl NewLesson) (Lesson, error)
		UpdateLesson(ctx context.Context, p user.Principal, id int, ul UpdateLesson) (Lesson, error)
		DeleteLesson(ctx context.Context, p user.Principal, id int) error

		QueryVideos(ctx context.Context, filter *VideoFilter) ([]LessonVideo, error)
		GetVideo(ctx context.Context, id int) (LessonVideo, error)
		CreateVideo(ctx context.Context, p user.Principal, nv NewLessonVideo) (LessonVideo, error)
		UpdateVideo(ctx context.Context, p user.Principal, id int, uv UpdateLessonVideo) (LessonVideo, error)
		DeleteVideo(ctx context.Context, p user.Principal, id int) error
	}

	Service struct {
		repo        Repository
		instructors InstructorFinder
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, instructors InstructorFinder) *Service {
	return &Service{repo: repo, instructors: instructors}
}

// CourseOf returns the course of the instructor behind `p`.
func (svc *Service) CourseOf(ctx context.Context, p user.Principal) (Course, error) {
	if !p.Is(user.RoleInstructor) || p.Member.ID == 0 {
		return Course{}, ErrNotInstructor
	}
	c, err := svc.repo.GetCourse(ctx, GetFilter{InstructorID: p.Member.ID})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Course{}, ErrNoCourse
		}
		return Course{}, errors.Wrap(err, "finding instructor course")
	}
	return c, nil
}

// Courses

func (svc *Service) QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, core.CleanOrdering(ordering, OrderingFields, DefaultOrdering...))
}

func (svc *Service) GetCourse(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{ID: id})
}

// checkInstructor verifies that `instructorID` exists and has no course other than `exclCourseID`.
func (svc *Service) checkInstructor(ctx context.Context, instructorID, exclCourseID int) error {
	if _, err := svc.instructors.GetMember(ctx, user.RoleInstructor, user.MemberFilter{ID: instructorID}); err != nil {
		if errors.Cause(err) == user.ErrMemberNotFound {
			return core.NewFieldError("instructor", "Invalid instructor.")
		}
		return errors.Wrap(err, "finding instructor")
	}
	c, err := svc.repo.GetCourse(ctx, GetFilter{InstructorID: instructorID})
	if err == nil && c.ID != exclCourseID {
		return core.NewFieldError("instructor", ErrInstructorHasCourse.Error())
	}
	if err != nil && errors.Cause(err) != ErrNotFound {
		return errors.Wrap(err, "finding instructor course")
	}
	return nil
}

func (svc *Service) trapInstructorHasCourse(err error, msg string) error {
	if errors.Cause(err) == ErrInstructorHasCourse {
		return core.NewFieldError("instructor", ErrInstructorHasCourse.Error())
	}
	return errors.Wrap(err, msg)
}

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	if err := svc.checkInstructor(ctx, nc.InstructorID, 0); err != nil {
		return Course{}, err
	}
	c, err := svc.repo.CreateCourse(ctx, Course{
		Title:        nc.Title,
		Description:  null.NewString(nc.Description, nc.Description != ""),
		InstructorID: nc.InstructorID,
		Status:       nc.Status,
	})
	if err != nil {
		return Course{}, svc.trapInstructorHasCourse(err, "creating course")
	}
	return c, nil
}

func (svc *Service) UpdateCourse(ctx context.Context, id int, uc UpdateCourse) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, GetFilter{ID: id})
	if err != nil {
		return Course{}, err
	}
	if uc.Title != nil {
		c.Title = *uc.Title
	}
	if uc.Description != nil {
		c.Description = null.NewString(*uc.Description, *uc.Description != "")
	}
	if uc.Status != nil {
		c.Status = *uc.Status
	}
	if uc.InstructorID != nil && *uc.InstructorID != c.InstructorID {
		if err = svc.checkInstructor(ctx, *uc.InstructorID, c.ID); err != nil {
			return Course{}, err
		}
		c.InstructorID = *uc.InstructorID
	}

	c, err = svc.repo.UpdateCourse(ctx, c)
	if err != nil {
		return Course{}, svc.trapInstructorHasCourse(err, "updating course")
	}
	return c, nil
}

func (svc *Service) DeleteCourse(ctx context.Context, id int) error {
	return svc.repo.DeleteCourse(ctx, id)
}

// Lessons

func (svc *Service) QueryLessons(ctx context.Context, filter *LessonFilter) ([]Lesson, error) {
	return svc.repo.QueryLessons(ctx, filter)
}

func (svc *Service) GetLesson(ctx context.Context, id int) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

// checkLessonOwner lets admins through and instructors only on the lessons of their course.
func (svc *Service) checkLessonOwner(ctx context.Context, p user.Principal, l Lesson) error {
	if p.IsAdmin() {
		return nil
	}
	c, err := svc.CourseOf(ctx, p)
	if err != nil {
		return err
	}
	if l.CourseID != c.ID {
		return core.ErrPermissionDenied
	}
	return nil
}

func (svc *Service) CreateLesson(ctx context.Context, p user.Principal, nl NewLesson) (Lesson, error) {
	c, err := svc.CourseOf(ctx, p)
	if err != nil {
		return Lesson{}, err
	}

	order := defaultOrder
	if nl.Order != nil {
		order = *nl.Order
	}
	now := time.Now().UTC()
	l, err := svc.repo.CreateLesson(ctx, Lesson{
		CourseID:  c.ID,
		Title:     nl.Title,
		Content:   SanitizeContent(nl.Content),
		Order:     order,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Lesson{}, errors.Wrap(err, "creating lesson")
	}
	return l, nil
}

func (svc *Service) UpdateLesson(ctx context.Context, p user.Principal, id int, ul UpdateLesson) (Lesson, error) {
	l, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if err = svc.checkLessonOwner(ctx, p, l); err != nil {
		return Lesson{}, err
	}

	if ul.Title != nil {
		l.Title = *ul.Title
	}
	if ul.Content != nil {
		l.Content = *ul.Content
	}
	if ul.Order != nil {
		l.Order = *ul.Order
	}
	l.Content = SanitizeContent(l.Content)
	l.UpdatedAt = time.Now().UTC()

	l, err = svc.repo.UpdateLesson(ctx, l)
	if err != nil {
		return Lesson{}, errors.Wrap(err, "updating lesson")
	}
	return l, nil
}

func (svc *Service) DeleteLesson(ctx context.Context, p user.Principal, id int) error {
	l, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.checkLessonOwner(ctx, p, l); err != nil {
		return err
	}
	return svc.repo.DeleteLesson(ctx, id)
}

// Lesson videos

func (svc *Service) QueryVideos(ctx context.Context, filter *VideoFilter) ([]LessonVideo, error) {
	return svc.repo.QueryVideos(ctx, filter)
}

func (svc *Service) GetVideo(ctx context.Context, id int) (LessonVideo, error) {
	return svc.repo.GetVideo(ctx, id)
}

func (svc *Service) checkVideoOwner(ctx context.Context, p user.Principal, v LessonVideo) error {
	if p.IsAdmin() {
		return nil
	}
	l, err := svc.repo.GetLesson(ctx, v.LessonID)
	if err != nil {
		return errors.Wrap(err, "finding video lesson")
	}
	return svc.checkLessonOwner(ctx, p, l)
}

func (svc *Service) CreateVideo(ctx context.Context, p user.Principal, nv NewLessonVideo) (LessonVideo, error) {
	c, err := svc.CourseOf(ctx, p)
	if err != nil {
		return LessonVideo{}, err
	}

	l, err := svc.repo.GetLesson(ctx, nv.LessonID)
	if err != nil {
		if errors.Cause(err) == ErrLessonNotFound {
			return LessonVideo{}, core.NewFieldError("lesson", "Invalid lesson.")
		}
		return LessonVideo{}, errors.Wrap(err, "finding lesson")
	}
	if l.CourseID != c.ID {
		return LessonVideo{}, core.NewFieldError("lesson", "lesson does not belong to your course")
	}

	order := defaultOrder
	if nv.Order != nil {
		order = *nv.Order
	}
	v, err := svc.repo.CreateVideo(ctx, LessonVideo{
		LessonID: l.ID,
		URL:      nv.URL,
		Title:    nv.Title,
		Order:    order,
	})
	if err != nil {
		return LessonVideo{}, errors.Wrap(err, "creating lesson video")
	}
	return v, nil
}

func (svc *Service) UpdateVideo(ctx context.Context, p user.Principal, id int, uv UpdateLessonVideo) (LessonVideo, error) {
	v, err := svc.repo.GetVideo(ctx, id)
	if err != nil {
		return LessonVideo{}, err
	}
	if err = svc.checkVideoOwner(ctx, p, v); err != nil {
		return LessonVideo{}, err
	}

	if uv.URL != nil {
		v.URL = *uv.URL
	}
	if uv.Title != nil {
		v.Title = *uv.Title
	}
	if uv.Order != nil {
		v.Order = *uv.Order
	}

	v, err = svc.repo.UpdateVideo(ctx, v)
	if err != nil {
		return LessonVideo{}, errors.Wrap(err, "updating lesson video")
	}
	return v, nil
}

func (svc *Service) DeleteVideo(ctx context.Context, p user.Principal, id int) error {
	v, err := svc.repo.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.checkVideoOwner(ctx, p, v); err != nil {
		return err
	}
	return svc.repo.DeleteVideo(ctx, id)
}
