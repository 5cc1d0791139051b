package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/course"
)

const (
	courseColumns = "id, title, description, instructor_id, status"
	lessonColumns = `id, course_id, title, content, "order", created_at, updated_at`
	videoColumns  = `id, lesson_id, url, title, "order"`

	courseInstructorKey = "courses_instructor_id_key"
)

type lessonRow struct {
	ID        int       `db:"id"`
	CourseID  int       `db:"course_id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	Order     int       `db:"order"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row lessonRow) lesson() course.Lesson {
	return course.Lesson{
		ID:        row.ID,
		CourseID:  row.CourseID,
		Title:     row.Title,
		Content:   row.Content,
		Order:     row.Order,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) trapInstructorKey(err error, msg string) error {
	if isUniqueViolation(err, courseInstructorKey) {
		return course.ErrInstructorHasCourse
	}
	return errors.Wrap(err, msg)
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `INSERT INTO courses (title, description, instructor_id, status) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := repo.db.GetContext(ctx, &c.ID, q, c.Title, c.Description, c.InstructorID, c.Status); err != nil {
		return course.Course{}, repo.trapInstructorKey(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Title != "" {
			conds = append(conds, "title = ?")
			args = append(args, filter.Title)
		}
		if filter.Search != "" {
			conds = append(conds, "title ILIKE ?")
			args = append(args, "%"+filter.Search+"%")
		}
		if filter.Status != "" {
			conds = append(conds, "status = ?")
			args = append(args, filter.Status)
		}
	}

	q := repo.db.Rebind("SELECT " + courseColumns + " FROM courses" + where(conds) + orderBy(ordering))
	courses := make([]course.Course, 0)
	if err := repo.db.SelectContext(ctx, &courses, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	q := "SELECT " + courseColumns + " FROM courses"
	var arg int
	switch {
	case filter.ID != 0:
		q += " WHERE id = $1"
		arg = filter.ID
	case filter.InstructorID != 0:
		q += " WHERE instructor_id = $1"
		arg = filter.InstructorID
	default:
		return course.Course{}, course.ErrNotFound
	}

	var c course.Course
	if err := repo.db.GetContext(ctx, &c, q, arg); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return c, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `UPDATE courses SET title = $1, description = $2, instructor_id = $3, status = $4 WHERE id = $5`
	res, err := repo.db.ExecContext(ctx, q, c.Title, c.Description, c.InstructorID, c.Status, c.ID)
	if err != nil {
		return course.Course{}, repo.trapInstructorKey(err, "updating course")
	}
	if err = checkAffected(res, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return checkAffected(res, course.ErrNotFound)
}

func (repo *courseRepository) CreateLesson(ctx context.Context, l course.Lesson) (course.Lesson, error) {
	l.Content = course.SanitizeContent(l.Content)
	q := `INSERT INTO lessons (course_id, title, content, "order", created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := repo.db.GetContext(ctx, &l.ID, q, l.CourseID, l.Title, l.Content, l.Order, l.CreatedAt.UTC(), l.UpdatedAt.UTC())
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return l, nil
}

func (repo *courseRepository) QueryLessons(ctx context.Context, filter *course.LessonFilter) ([]course.Lesson, error) {
	var conds []string
	var args []interface{}
	if filter != nil && filter.CourseID != 0 {
		conds = append(conds, "course_id = ?")
		args = append(args, filter.CourseID)
	}

	q := repo.db.Rebind("SELECT " + lessonColumns + " FROM lessons" + where(conds) + ` ORDER BY "order", id`)
	var rows []lessonRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	lessons := make([]course.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.lesson())
	}
	return lessons, nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id int) (course.Lesson, error) {
	var row lessonRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+lessonColumns+" FROM lessons WHERE id = $1", id); err != nil {
		return course.Lesson{}, trapNoRowsErr(err, course.ErrLessonNotFound, "finding lesson")
	}
	return row.lesson(), nil
}

// UpdateLesson never moves a lesson to another course.
func (repo *courseRepository) UpdateLesson(ctx context.Context, l course.Lesson) (course.Lesson, error) {
	l.Content = course.SanitizeContent(l.Content)
	q := `UPDATE lessons SET title = $1, content = $2, "order" = $3, updated_at = $4 WHERE id = $5`
	res, err := repo.db.ExecContext(ctx, q, l.Title, l.Content, l.Order, l.UpdatedAt.UTC(), l.ID)
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if err = checkAffected(res, course.ErrLessonNotFound); err != nil {
		return course.Lesson{}, err
	}
	return repo.GetLesson(ctx, l.ID)
}

func (repo *courseRepository) DeleteLesson(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM lessons WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return checkAffected(res, course.ErrLessonNotFound)
}

func (repo *courseRepository) CreateVideo(ctx context.Context, v course.LessonVideo) (course.LessonVideo, error) {
	q := `INSERT INTO lesson_videos (lesson_id, url, title, "order") VALUES ($1, $2, $3, $4) RETURNING id`
	if err := repo.db.GetContext(ctx, &v.ID, q, v.LessonID, v.URL, v.Title, v.Order); err != nil {
		return course.LessonVideo{}, errors.Wrap(err, "inserting lesson video")
	}
	return v, nil
}

func (repo *courseRepository) QueryVideos(ctx context.Context, filter *course.VideoFilter) ([]course.LessonVideo, error) {
	var conds []string
	var args []interface{}
	if filter != nil && filter.LessonID != 0 {
		conds = append(conds, "lesson_id = ?")
		args = append(args, filter.LessonID)
	}

	q := repo.db.Rebind("SELECT " + videoColumns + " FROM lesson_videos" + where(conds) + ` ORDER BY "order", id`)
	videos := make([]course.LessonVideo, 0)
	if err := repo.db.SelectContext(ctx, &videos, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying lesson videos")
	}
	return videos, nil
}

func (repo *courseRepository) GetVideo(ctx context.Context, id int) (course.LessonVideo, error) {
	var v course.LessonVideo
	if err := repo.db.GetContext(ctx, &v, "SELECT "+videoColumns+" FROM lesson_videos WHERE id = $1", id); err != nil {
		return course.LessonVideo{}, trapNoRowsErr(err, course.ErrVideoNotFound, "finding lesson video")
	}
	return v, nil
}

// UpdateVideo never moves a video to another lesson.
func (repo *courseRepository) UpdateVideo(ctx context.Context, v course.LessonVideo) (course.LessonVideo, error) {
	q := `UPDATE lesson_videos SET url = $1, title = $2, "order" = $3 WHERE id = $4`
	res, err := repo.db.ExecContext(ctx, q, v.URL, v.Title, v.Order, v.ID)
	if err != nil {
		return course.LessonVideo{}, errors.Wrap(err, "updating lesson video")
	}
	if err = checkAffected(res, course.ErrVideoNotFound); err != nil {
		return course.LessonVideo{}, err
	}
	return repo.GetVideo(ctx, v.ID)
}

func (repo *courseRepository) DeleteVideo(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM lesson_videos WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting lesson video")
	}
	return checkAffected(res, course.ErrVideoNotFound)
}
