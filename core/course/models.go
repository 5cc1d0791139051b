package course

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/jifunze/jifunze/core"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Course struct {
	ID           int         `json:"id" db:"id"`
	Title        string      `json:"title" db:"title"`
	Description  null.String `json:"description" db:"description"`
	InstructorID int         `json:"instructor" db:"instructor_id"`
	Status       Status      `json:"status" db:"status"`
}

func (c Course) IsActive() bool {
	return c.Status == StatusActive
}

type Lesson struct {
	ID        int       `json:"id" db:"id"`
	CourseID  int       `json:"course" db:"course_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	Order     int       `json:"order" db:"order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

type LessonVideo struct {
	ID       int    `json:"id" db:"id"`
	LessonID int    `json:"lesson" db:"lesson_id"`
	URL      string `json:"url" db:"url"`
	Title    string `json:"title" db:"title"`
	Order    int    `json:"order" db:"order"`
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title        string `json:"title" validate:"required,max=100"`
	Description  string `json:"description"`
	InstructorID int    `json:"instructor" validate:"required,min=1"`
	Status       Status `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Status = Status(core.CleanString(string(nc.Status), true /* lower */))
	if nc.Status == "" {
		nc.Status = StatusInactive
	}
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description"`
	InstructorID *int    `json:"instructor" validate:"omitempty,min=1"`
	Status       *Status `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	if uc.Title != nil {
		title := core.CleanString(*uc.Title)
		uc.Title = &title
	}
	if uc.Description != nil {
		desc := core.CleanString(*uc.Description)
		uc.Description = &desc
	}
	if uc.Status != nil {
		status := Status(core.CleanString(string(*uc.Status), true /* lower */))
		uc.Status = &status
	}
	return validate.Struct(uc)
}

// NewLesson contains information needed to create a new Lesson. Its course is the author's.
type NewLesson struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
	Order   *int   `json:"order" validate:"omitempty,min=0,max=32767"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Content = SanitizeContent(nl.Content)
	return validate.Struct(nl)
}

// UpdateLesson has no course field: a lesson cannot move to another course.
type UpdateLesson struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content *string `json:"content"`
	Order   *int    `json:"order" validate:"omitempty,min=0,max=32767"`
}

func (ul *UpdateLesson) Validate(validate *validator.Validate) error {
	if ul.Title != nil {
		title := core.CleanString(*ul.Title)
		ul.Title = &title
	}
	if ul.Content != nil {
		content := SanitizeContent(*ul.Content)
		ul.Content = &content
	}
	return validate.Struct(ul)
}

// NewLessonVideo contains information needed to create a new LessonVideo.
type NewLessonVideo struct {
	LessonID int    `json:"lesson" validate:"required,min=1"`
	URL      string `json:"url" validate:"required,url,max=200"`
	Title    string `json:"title" validate:"max=255"`
	Order    *int   `json:"order" validate:"omitempty,min=0"`
}

func (nv *NewLessonVideo) Validate(validate *validator.Validate) error {
	nv.URL = core.CleanString(nv.URL)
	nv.Title = core.CleanString(nv.Title)
	return validate.Struct(nv)
}

// UpdateLessonVideo has no lesson field: a video cannot move to another lesson.
type UpdateLessonVideo struct {
	URL   *string `json:"url" validate:"omitempty,url,max=200"`
	Title *string `json:"title" validate:"omitempty,max=255"`
	Order *int    `json:"order" validate:"omitempty,min=0"`
}

func (uv *UpdateLessonVideo) Validate(validate *validator.Validate) error {
	if uv.URL != nil {
		url := core.CleanString(*uv.URL)
		uv.URL = &url
	}
	if uv.Title != nil {
		title := core.CleanString(*uv.Title)
		uv.Title = &title
	}
	return validate.Struct(uv)
}

type QueryFilter struct {
	Title  string `query:"title"`
	Search string `query:"search"`
	Status Status `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Title = core.CleanString(qf.Title)
	qf.Search = core.CleanString(qf.Search)
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
}

type LessonFilter struct {
	CourseID int `query:"course"`
}

type VideoFilter struct {
	LessonID int `query:"lesson"`
}

var (
	// OrderingFields maps the public ordering fields of courses to their columns.
	OrderingFields = map[string]string{
		"id":     "id",
		"title":  "title",
		"status": "status",
	}
	DefaultOrdering = []core.DBOrdering{{Field: "title", Ascending: true}, {Field: "id", Ascending: true}}
)
