package enrolment

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Enrolment binds a student to a course. Completed counts the progress updates
// of the student and never decreases.
type Enrolment struct {
	ID         int       `json:"id" db:"id"`
	StudentID  int       `json:"student" db:"student_id"`
	CourseID   int       `json:"course" db:"course_id"`
	Completed  int       `json:"completed" db:"completed"`
	DateJoined time.Time `json:"date_joined" db:"date_joined"` // UTC
}

// NewEnrolment is the payload of a student joining a course.
type NewEnrolment struct {
	CourseID int `json:"course" validate:"required,min=1"`
}

func (ne NewEnrolment) Validate(validate *validator.Validate) error {
	return validate.Struct(ne)
}

// UpdateEnrolment identifies the enrolment to advance. Any counter value sent
// by the client is ignored.
type UpdateEnrolment struct {
	CourseID *int `json:"course" validate:"required,min=1"`
}

func (ue UpdateEnrolment) Validate(validate *validator.Validate) error {
	return validate.Struct(ue)
}

// GetFilter selects a single Enrolment, either by ID or by (StudentID, CourseID).
type GetFilter struct {
	ID        int
	StudentID int
	CourseID  int
}

type QueryFilter struct {
	CourseID  int `query:"course"`
	StudentID int `query:"-"`
}
