package videosession

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jifunze/jifunze/core"
)

type Session struct {
	ID            int       `json:"id" db:"id"`
	Title         string    `json:"session_title" db:"session_title"`
	ScheduledTime time.Time `json:"scheduled_time" db:"scheduled_time"`
	Link          string    `json:"session_link" db:"session_link"`
	CourseID      int       `json:"course" db:"course_id"`
	InstructorID  int       `json:"instructor" db:"instructor_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewSession contains information needed to schedule a Session.
// The title is checked by the service, after the caller.
type NewSession struct {
	Title         string     `json:"session_title" validate:"max=255"`
	ScheduledTime *time.Time `json:"scheduled_time" validate:"required"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	return validate.Struct(ns)
}

// UpdateSession requires the title again since the link is rebuilt from it.
type UpdateSession struct {
	Title         string     `json:"session_title" validate:"max=255"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

func (us *UpdateSession) Validate(validate *validator.Validate) error {
	us.Title = core.CleanString(us.Title)
	return validate.Struct(us)
}

type QueryFilter struct {
	CourseID int `query:"course"`
}
