package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core/enrolment"
)

const (
	enrolmentColumns = "id, student_id, course_id, completed, date_joined"

	enrolmentStudentCourseKey = "enrolments_student_course_key"
)

type enrolmentRepository struct {
	db *sqlx.DB
}

var _ enrolment.Repository = (*enrolmentRepository)(nil) // interface compliance check

func NewEnrolmentRepository(db *sqlx.DB) *enrolmentRepository {
	return &enrolmentRepository{db: db}
}

// Create maps a racing duplicate insert to enrolment.ErrDuplicate.
func (repo *enrolmentRepository) Create(ctx context.Context, e enrolment.Enrolment) (enrolment.Enrolment, error) {
	q := `INSERT INTO enrolments (student_id, course_id, completed, date_joined) VALUES ($1, $2, 0, $3)
		RETURNING ` + enrolmentColumns
	var created enrolment.Enrolment
	if err := repo.db.GetContext(ctx, &created, q, e.StudentID, e.CourseID, e.DateJoined.UTC()); err != nil {
		if isUniqueViolation(err, enrolmentStudentCourseKey) {
			return enrolment.Enrolment{}, enrolment.ErrDuplicate
		}
		return enrolment.Enrolment{}, errors.Wrap(err, "inserting enrolment")
	}
	created.DateJoined = created.DateJoined.UTC()
	return created, nil
}

func (repo *enrolmentRepository) Query(ctx context.Context, filter *enrolment.QueryFilter) ([]enrolment.Enrolment, error) {
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.CourseID != 0 {
			conds = append(conds, "course_id = ?")
			args = append(args, filter.CourseID)
		}
		if filter.StudentID != 0 {
			conds = append(conds, "student_id = ?")
			args = append(args, filter.StudentID)
		}
	}

	q := repo.db.Rebind("SELECT " + enrolmentColumns + " FROM enrolments" + where(conds) + " ORDER BY id")
	enrolments := make([]enrolment.Enrolment, 0)
	if err := repo.db.SelectContext(ctx, &enrolments, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrolments")
	}
	return enrolments, nil
}

func (repo *enrolmentRepository) Get(ctx context.Context, filter enrolment.GetFilter) (enrolment.Enrolment, error) {
	var e enrolment.Enrolment
	var err error
	if filter.ID != 0 {
		err = repo.db.GetContext(ctx, &e, "SELECT "+enrolmentColumns+" FROM enrolments WHERE id = $1", filter.ID)
	} else {
		err = repo.db.GetContext(ctx, &e,
			"SELECT "+enrolmentColumns+" FROM enrolments WHERE student_id = $1 AND course_id = $2",
			filter.StudentID, filter.CourseID)
	}
	if err != nil {
		return enrolment.Enrolment{}, trapNoRowsErr(err, enrolment.ErrNotFound, "finding enrolment")
	}
	return e, nil
}

// IncrementCompleted lets the store do the arithmetic so concurrent updates never lose a step.
func (repo *enrolmentRepository) IncrementCompleted(ctx context.Context, id int) (enrolment.Enrolment, error) {
	var e enrolment.Enrolment
	q := "UPDATE enrolments SET completed = completed + 1 WHERE id = $1 RETURNING " + enrolmentColumns
	if err := repo.db.GetContext(ctx, &e, q, id); err != nil {
		return enrolment.Enrolment{}, trapNoRowsErr(err, enrolment.ErrNotFound, "incrementing enrolment")
	}
	return e, nil
}

func (repo *enrolmentRepository) Delete(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM enrolments WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting enrolment")
	}
	return checkAffected(res, enrolment.ErrNotFound)
}
